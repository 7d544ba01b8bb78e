package dyndns

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Septrum101/dynhostMon/common/ddns"
)

// DynDNS speaks the dyndns2 update protocol used by OVH DynHost and friends.
type DynDNS struct {
	domain   string
	endpoint string
	client   *resty.Client
}

func New(endpoint string, timeout time.Duration, domain string, username string, password string) *DynDNS {
	d := &DynDNS{
		domain:   domain,
		endpoint: endpoint,
	}

	cli := resty.New()
	cli.SetBasicAuth(username, password).SetTimeout(timeout).
		SetQueryParam("system", "dyndns").
		SetQueryParam("hostname", domain)
	d.client = cli

	return d
}

func (d *DynDNS) Domain() string {
	return d.domain
}

func (d *DynDNS) Update(ctx context.Context, ipAddr string) ddns.Outcome {
	if ipAddr == "" {
		return ddns.Fail("IP address is nil")
	}

	resp, err := d.client.R().SetContext(ctx).SetQueryParam("myip", ipAddr).Get(d.endpoint)
	if err != nil {
		return ddns.Fail("could not send request: %v", err)
	}

	return Classify(resp.StatusCode(), resp.String(), ipAddr)
}

// Classify maps a provider answer to an outcome: "good <ip>" is an update,
// "nochg <ip>" means the record already pointed there, anything else failed.
func Classify(statusCode int, body string, ipAddr string) ddns.Outcome {
	if statusCode < 200 || statusCode > 299 {
		return ddns.Fail("HTTP status %d", statusCode)
	}

	body = strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(body, "good "+ipAddr):
		return ddns.Outcome{Status: ddns.Updated}
	case strings.HasPrefix(body, "nochg "+ipAddr):
		return ddns.Outcome{Status: ddns.NoChange}
	default:
		return ddns.Fail("%s", body)
	}
}
