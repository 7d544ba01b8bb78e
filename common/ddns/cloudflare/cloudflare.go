package cloudflare

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudflare/cloudflare-go"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/dynhostMon/common/ddns"
)

// Cloudflare Implementation
type Cloudflare struct {
	domain  string
	timeout time.Duration
	client  *cloudflare.API
}

// New builds a client from an account section. An empty username means the
// password is an API token, otherwise username and password are the account
// e-mail and its global API key.
func New(domain string, username string, password string, timeout time.Duration, opts ...cloudflare.Option) (*Cloudflare, error) {
	var (
		client *cloudflare.API
		err    error
	)
	if username == "" {
		client, err = cloudflare.NewWithAPIToken(password, opts...)
	} else {
		client, err = cloudflare.New(password, username, opts...)
	}
	if err != nil {
		return nil, err
	}

	return &Cloudflare{
		domain:  domain,
		timeout: timeout,
		client:  client,
	}, nil
}

func (cf *Cloudflare) Domain() string {
	return cf.domain
}

// Update creates or updates the A record of the domain.
func (cf *Cloudflare) Update(ctx context.Context, ipAddr string) ddns.Outcome {
	if ipAddr == "" {
		return ddns.Fail("IP address is nil")
	}

	if cf.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cf.timeout)
		defer cancel()
	}

	zoneID, records, err := cf.getRecords(ctx, "A")
	if err != nil {
		return ddns.Fail("%v", err)
	}

	if len(records) == 0 {
		if _, err := cf.client.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.CreateDNSRecordParams{
			Type:    "A",
			Name:    cf.domain,
			Content: ipAddr,
		}); err != nil {
			return ddns.Fail("create record failure, Error: %v", err)
		}
		log.Debugf("[%s] create record success, IP: %s", cf.domain, ipAddr)
		return ddns.Outcome{Status: ddns.Updated}
	}

	updated := 0
	for i := range records {
		if records[i].Content == ipAddr {
			continue
		}
		if _, err := cf.client.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.UpdateDNSRecordParams{
			Type:    "A",
			Name:    cf.domain,
			ID:      records[i].ID,
			Content: ipAddr,
		}); err != nil {
			return ddns.Fail("update record failure, Error: %v", err)
		}
		updated++
	}

	if updated == 0 {
		return ddns.Outcome{Status: ddns.NoChange}
	}
	return ddns.Outcome{Status: ddns.Updated}
}

func (cf *Cloudflare) getRecords(ctx context.Context, recordType string) (string, []cloudflare.DNSRecord, error) {
	zones, err := cf.client.ListZones(ctx)
	if err != nil {
		return "", nil, err
	}

	zoneID := matchZone(cf.domain, zones)
	if zoneID == "" {
		return "", nil, errors.New("cannot find a valid zone")
	}

	records, _, err := cf.client.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.ListDNSRecordsParams{
		Type: recordType,
		Name: cf.domain,
	})
	if err != nil {
		return "", nil, err
	}
	return zoneID, records, nil
}

// matchZone returns the ID of the most specific zone containing domain.
func matchZone(domain string, zones []cloudflare.Zone) string {
	zoneID, best := "", 0
	for i := range zones {
		name := zones[i].Name
		if domain != name && !strings.HasSuffix(domain, "."+name) {
			continue
		}
		if len(name) > best {
			zoneID, best = zones[i].ID, len(name)
		}
	}
	return zoneID
}
