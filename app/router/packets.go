package router

type request struct {
	Method     string `json:"method"`
	Parameters any    `json:"parameters"`
	Service    string `json:"service"`
}

type loginParameters struct {
	ApplicationName string `json:"applicationName"`
	Password        string `json:"password"`
	Username        string `json:"username"`
}

type loginResponse struct {
	Status int `json:"status"`
	Data   struct {
		ContextID string `json:"contextID"`
		Username  string `json:"username"`
		Groups    string `json:"groups"`
	} `json:"data"`
}

// WANStatus is the data part of the NMC getWANStatus answer.
type WANStatus struct {
	WanState            string `json:"WanState"`
	LinkType            string `json:"LinkType"`
	LinkState           string `json:"LinkState"`
	MACAddress          string `json:"MACAddress"`
	Protocol            string `json:"Protocol"`
	ConnectionState     string `json:"ConnectionState"`
	LastConnectionError string `json:"LastConnectionError"`
	IPAddress           string `json:"IPAddress"`
	RemoteGateway       string `json:"RemoteGateway"`
	DNSServers          string `json:"DNSServers"`
	IPv6Address         string `json:"IPv6Address"`
}

type wanStatusResponse struct {
	Status bool      `json:"status"`
	Data   WANStatus `json:"data"`
}

func newLoginRequest(username string, password string) *request {
	return &request{
		Method: "createContext",
		Parameters: &loginParameters{
			ApplicationName: "webui",
			Password:        password,
			Username:        username,
		},
		Service: "sah.Device.Information",
	}
}

func newWANStatusRequest() *request {
	return &request{
		Method:     "getWANStatus",
		Parameters: struct{}{},
		Service:    "NMC",
	}
}
