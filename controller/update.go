package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/crewjam/errset"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/dynhostMon/common/ddns"
)

// updateAll pushes ip to every account and waits for all of them. Failed
// accounts are logged and left alone until the next change.
func (s *Service) updateAll(ctx context.Context, ip string) error {
	outcomes := make([]ddns.Outcome, len(s.clients))

	var wg sync.WaitGroup
	for i := range s.clients {
		i := i
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = s.clients[i].Update(ctx, ip)
		}); err != nil {
			wg.Done()
			outcomes[i] = ddns.Fail("could not schedule update: %v", err)
		}
	}
	wg.Wait()

	errs := errset.ErrSet{}
	for i := range outcomes {
		domain := s.clients[i].Domain()
		switch outcomes[i].Status {
		case ddns.Updated:
			log.Infof("Updated %s to %s", domain, ip)
		case ddns.NoChange:
			log.Infof("%s is already mapped to %s", domain, ip)
		default:
			log.Errorf("Encountered error while tried to update %s: %s", domain, outcomes[i].Reason)
			errs = append(errs, fmt.Errorf("%s: %s", domain, outcomes[i].Reason))
		}
	}

	err := errs.ReturnValue()
	if len(s.clients) > 0 {
		content := fmt.Sprintf("IP changed: %s", ip)
		if err != nil {
			content += fmt.Sprintf("\nFailed: %v", err)
		}
		s.pushMessage(s.domains(), content)
	}

	return err
}

func (s *Service) domains() string {
	names := make([]string, len(s.clients))
	for i := range s.clients {
		names[i] = s.clients[i].Domain()
	}
	return strings.Join(names, ", ")
}

// push message
func (s *Service) pushMessage(title string, content string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Webhook(title, content); err != nil {
		log.Error(err)
	} else {
		log.Infof("[%s] Push message success", title)
	}
}
