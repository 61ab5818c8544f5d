package regtoken

import (
	"context"
	"net/url"
	"strings"
)

// Links turns tokens into the web-form URLs sent to users.
type Links struct {
	baseURL string
	tokens  *Service
}

func NewLinks(baseURL string, tokens *Service) *Links {
	return &Links{baseURL: strings.TrimRight(baseURL, "/"), tokens: tokens}
}

// URL builds the landing URL for a token of the given purpose.
func (l *Links) URL(p Purpose, token, campaignID string) string {
	q := "?token=" + url.QueryEscape(token)
	switch p {
	case PurposeInitialWithSetup:
		return l.baseURL + "/register/form" + q
	case PurposeResubmission:
		return l.baseURL + "/resubmit" + q
	case PurposeCampaign:
		return l.baseURL + "/campaign/" + url.PathEscape(campaignID) + q
	default:
		return l.baseURL + "/" + q
	}
}

// Issue mints a token and returns its landing URL.
func (l *Links) Issue(ctx context.Context, req IssueRequest) (string, error) {
	token, err := l.tokens.Issue(ctx, req)
	if err != nil {
		return "", err
	}
	return l.URL(req.Purpose, token, req.CampaignID), nil
}

func (l *Links) Tokens() *Service {
	return l.tokens
}
