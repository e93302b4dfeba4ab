package shopify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"sort"
	"strings"

	ierrors "github.com/jrsteele09/store-insights/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether shop looks like a *.myshopify.com domain.
func ValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

type InstallerOptions struct {
	APIKey      string
	APISecret   string
	Scopes      []string
	RedirectURL string
	// BaseURL replaces https://{shop} when set.
	BaseURL string
}

// Installer runs the Shopify app install (authorization code) flow for a shop.
type Installer struct {
	opts InstallerOptions
}

func NewInstaller(opts InstallerOptions) *Installer {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Installer{opts: opts}
}

// Enabled reports whether app credentials are configured.
func (i *Installer) Enabled() bool {
	return i != nil && i.opts.APIKey != "" && i.opts.APISecret != ""
}

func (i *Installer) config(shop string) *oauth2.Config {
	base := i.opts.BaseURL
	if base == "" {
		base = "https://" + shop
	}
	var scopes []string
	if len(i.opts.Scopes) > 0 {
		// Shopify expects a comma separated scope list.
		scopes = []string{strings.Join(i.opts.Scopes, ",")}
	}
	return &oauth2.Config{
		ClientID:     i.opts.APIKey,
		ClientSecret: i.opts.APISecret,
		RedirectURL:  i.opts.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/admin/oauth/authorize",
			TokenURL:  base + "/admin/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthURL returns the shop's consent page for an offline access token.
func (i *Installer) AuthURL(shop, state string) (string, error) {
	if !i.Enabled() {
		return "", ierrors.ErrUnsupported
	}
	if !ValidShopDomain(shop) {
		return "", ierrors.Wrapf(ierrors.ErrInvalidRequest, "invalid shop domain %q", shop)
	}
	return i.config(shop).AuthCodeURL(state), nil
}

// VerifyCallback checks the hmac parameter Shopify signs the callback query with.
func (i *Installer) VerifyCallback(query url.Values) error {
	if !i.Enabled() {
		return ierrors.ErrUnsupported
	}
	given := query.Get("hmac")
	if given == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidRequest, "missing hmac")
	}
	expected := Sign(i.opts.APISecret, query)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(given))) {
		return ierrors.Wrapf(ierrors.ErrInvalidRequest, "hmac mismatch")
	}
	return nil
}

// Exchange swaps the callback code for the shop's access token.
func (i *Installer) Exchange(ctx context.Context, shop, code string) (string, error) {
	if !i.Enabled() {
		return "", ierrors.ErrUnsupported
	}
	if !ValidShopDomain(shop) {
		return "", ierrors.Wrapf(ierrors.ErrInvalidRequest, "invalid shop domain %q", shop)
	}
	tok, err := i.config(shop).Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrapf(err, "exchange install code for %s", shop)
	}
	if tok.AccessToken == "" {
		return "", errors.Errorf("no access token returned for %s", shop)
	}
	return tok.AccessToken, nil
}

// Sign computes the hex HMAC-SHA256 of the sorted query, excluding hmac and signature.
func Sign(secret string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}
