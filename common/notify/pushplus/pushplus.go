package pushplus

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Septrum101/dynhostMon/config"
)

const api = "https://www.pushplus.plus/send/"

// PushPlus sends plain text messages through pushplus.plus. Topic, when set,
// delivers to a group instead of the token owner.
type PushPlus struct {
	Token string
	Topic string
	API   string
}

type message struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
	Topic    string `json:"topic,omitempty"`
}

type result struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (p *PushPlus) Webhook(title string, content string) error {
	endpoint := p.API
	if endpoint == "" {
		endpoint = api
	}

	rtn := &result{}
	resp, err := resty.New().
		SetRetryCount(3).
		SetTimeout(10 * time.Second).
		R().
		SetResult(rtn).
		SetBody(&message{
			Token:    p.Token,
			Title:    fmt.Sprintf("[%s] %s", config.AppName, title),
			Content:  content,
			Template: "txt",
			Topic:    p.Topic,
		}).
		ForceContentType("application/json").
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("[PushPlus] %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("[PushPlus] unexpected HTTP status %d", resp.StatusCode())
	}

	switch rtn.Code {
	case 200:
		return nil
	case 0:
		return fmt.Errorf("[PushPlus] %s", resp.String())
	default:
		return fmt.Errorf("[PushPlus] %s (code %d)", rtn.Msg, rtn.Code)
	}
}
