package controller

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/dynhostMon/common/ddns"
	"github.com/Septrum101/dynhostMon/common/ddns/cloudflare"
	"github.com/Septrum101/dynhostMon/common/ddns/dyndns"
	"github.com/Septrum101/dynhostMon/common/notify"
	"github.com/Septrum101/dynhostMon/common/notify/pushplus"
	"github.com/Septrum101/dynhostMon/common/notify/telegram"
	"github.com/Septrum101/dynhostMon/config"
	"github.com/Septrum101/dynhostMon/helper"
)

// buildClients creates one provider client per account, skipping the ones
// that cannot be used.
func buildClients(c *config.Config, accounts []*config.Account) []ddns.Client {
	var clients []ddns.Client
	for _, a := range accounts {
		domain, err := helper.NormalizeDomain(a.Domain)
		if err != nil {
			log.Warnf("[%s] invalid domain %q: %v; skipping", a.Section, a.Domain, err)
			continue
		}

		switch strings.ToLower(a.Provider) {
		case "", "dyndns":
			clients = append(clients, dyndns.New(c.DDNS.Endpoint, c.DDNS.Timeout, domain, a.Username, a.Password))
		case "cloudflare":
			cli, err := cloudflare.New(domain, a.Username, a.Password, c.DDNS.Timeout)
			if err != nil {
				log.Warnf("[%s] %v; skipping", a.Section, err)
				continue
			}
			clients = append(clients, cli)
		default:
			log.Warnf("[%s] unknown provider '%s'; skipping", a.Section, a.Provider)
		}
	}

	return clients
}

func buildNotifier(n *config.Notify) (notify.Notify, error) {
	if n == nil || !n.Enable {
		return nil, nil
	}

	switch n.Provider {
	case "pushplus":
		return &pushplus.PushPlus{
			Token: n.Config["pushplus_token"],
			Topic: n.Config["pushplus_topic"],
		}, nil
	case "telegram":
		chatID, err := strconv.ParseInt(n.Config["telegram_chatid"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram_chatid: %w", err)
		}
		return &telegram.Telegram{
			ApiHost: n.Config["telegram_apihost"],
			ChatID:  chatID,
			Token:   n.Config["telegram_token"],
		}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider '%s'", n.Provider)
	}
}
