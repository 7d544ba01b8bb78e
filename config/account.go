package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

var accountKeys = []string{"domain", "username", "password"}

// LoadAccounts reads the accounts file. Every section describes one account;
// sections lacking domain, username or password are skipped. Key names are
// case-insensitive.
func LoadAccounts(path string) ([]*Account, error) {
	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}

	var accounts []*Account
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection && len(section.Keys()) == 0 {
			continue
		}

		missing := false
		for _, k := range accountKeys {
			if !section.HasKey(k) {
				missing = true
				break
			}
		}
		if missing {
			log.Warnf("[%s] Section '%s' is missing fields, ensure there are 'domain', 'username' and 'password'; skipping",
				path, section.Name())
			continue
		}

		accounts = append(accounts, &Account{
			Section:  section.Name(),
			Domain:   section.Key("domain").String(),
			Username: section.Key("username").String(),
			Password: section.Key("password").String(),
			Provider: section.Key("provider").MustString("dyndns"),
		})
	}

	return accounts, nil
}
