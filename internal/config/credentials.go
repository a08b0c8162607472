package config

import (
	"os"
	"strings"

	"github.com/blacktop/genpost/internal/genpost"
)

// Environment variables read by LoadCredentials.
const (
	EnvOpenAIKey           = "OPENAI_API_KEY"
	EnvOpenAIBaseURL       = "OPENAI_BASE_URL"
	EnvLinkedInAccessToken = "GENPOST_LINKEDIN_ACCESS_TOKEN"
	EnvLinkedInAuthorURN   = "GENPOST_LINKEDIN_AUTHOR_URN"
	EnvLinkedInAPIURL      = "GENPOST_LINKEDIN_API_URL"
	EnvMetaAccessToken     = "GENPOST_META_ACCESS_TOKEN"
	EnvFacebookPageID      = "GENPOST_FACEBOOK_PAGE_ID"
	EnvInstagramUserID     = "GENPOST_INSTAGRAM_USER_ID"
	EnvGraphAPIURL         = "GENPOST_GRAPH_API_URL"
)

// OpenAI holds the completion, image and video service credentials.
type OpenAI struct {
	APIKey  string
	BaseURL string
}

// Missing lists unset OpenAI variables.
func (o OpenAI) Missing() []string {
	return missing(field{EnvOpenAIKey, o.APIKey})
}

// LinkedIn holds the member token and author URN (urn:li:person:...).
type LinkedIn struct {
	AccessToken string
	AuthorURN   string
	APIURL      string
}

// Missing lists unset LinkedIn variables.
func (l LinkedIn) Missing() []string {
	return missing(field{EnvLinkedInAccessToken, l.AccessToken}, field{EnvLinkedInAuthorURN, l.AuthorURN})
}

// Facebook holds the Meta token and the Page that receives posts.
type Facebook struct {
	AccessToken string
	PageID      string
	APIURL      string
}

// Missing lists unset Facebook variables.
func (f Facebook) Missing() []string {
	return missing(field{EnvMetaAccessToken, f.AccessToken}, field{EnvFacebookPageID, f.PageID})
}

// Instagram publishes through the Page the business account is linked to.
type Instagram struct {
	AccessToken string
	PageID      string
	UserID      string
	APIURL      string
}

// Missing lists unset Instagram variables.
func (i Instagram) Missing() []string {
	return missing(
		field{EnvMetaAccessToken, i.AccessToken},
		field{EnvFacebookPageID, i.PageID},
		field{EnvInstagramUserID, i.UserID},
	)
}

// Credentials is every secret genpost uses, resolved once at startup.
type Credentials struct {
	OpenAI    OpenAI
	LinkedIn  LinkedIn
	Facebook  Facebook
	Instagram Instagram
}

// LoadCredentials reads the process environment. Nothing is validated here;
// each consumer reports its own missing variables when it is first used.
func LoadCredentials() Credentials {
	meta := env(EnvMetaAccessToken)
	pageID := env(EnvFacebookPageID)
	graphURL := env(EnvGraphAPIURL)

	return Credentials{
		OpenAI: OpenAI{
			APIKey:  env(EnvOpenAIKey),
			BaseURL: env(EnvOpenAIBaseURL),
		},
		LinkedIn: LinkedIn{
			AccessToken: env(EnvLinkedInAccessToken),
			AuthorURN:   env(EnvLinkedInAuthorURN),
			APIURL:      env(EnvLinkedInAPIURL),
		},
		Facebook: Facebook{
			AccessToken: meta,
			PageID:      pageID,
			APIURL:      graphURL,
		},
		Instagram: Instagram{
			AccessToken: meta,
			PageID:      pageID,
			UserID:      env(EnvInstagramUserID),
			APIURL:      graphURL,
		},
	}
}

// Missing returns the unset variables needed to publish to p.
func (c Credentials) Missing(p genpost.Platform) []string {
	switch p {
	case genpost.LinkedIn:
		return c.LinkedIn.Missing()
	case genpost.Facebook:
		return c.Facebook.Missing()
	case genpost.Instagram:
		return c.Instagram.Missing()
	}
	return nil
}

type field struct {
	name  string
	value string
}

func missing(fields ...field) []string {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			out = append(out, f.name)
		}
	}
	return out
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
