package config

import (
	"fmt"
)

var (
	version = "dev"
	AppName = "DynHostMon"
	intro   = "A DynDNS updater that follows the public IP reported by a Sagemcom router."
	date    = "unknown"
)

func ShowVersion() {
	fmt.Printf("%s %s, built at %s\n%s\n", AppName, version, date, intro)
}
