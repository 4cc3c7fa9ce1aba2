package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/clubcal/clubcal/internal/config"
	"github.com/clubcal/clubcal/internal/rest"
	"github.com/clubcal/clubcal/pkg/settings"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

// stateKey holds the nonce of the login in progress.
const stateKey = "googleAuthState"

// TokenStore persists the OAuth token and login state. settings.ServiceImpl implements it.
type TokenStore interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Store(ctx context.Context, key string, value any) error
}

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	store       TokenStore
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(store TokenStore, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{gcal.CalendarEventsScope, gcal.CalendarReadonlyScope},
	}

	return &GoogleAuth{store: store, oauthConfig: oauthConfig}
}

func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := g.store.Store(ctx, settings.KeyGoogleToken, nil); err != nil {
		log.Errorf("failed to clear old Google token: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}

	stateNonce := uuid.New().String()
	if err := g.store.Store(ctx, stateKey, stateNonce); err != nil {
		log.Errorf("failed to store Google auth nonce: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}

	finalUrl := r.URL.Query().Get("finalUrl")
	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: u})
}

func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.FormValue("code")
	finalUrl, nonce, ok := strings.Cut(r.FormValue("state"), "|")
	if !ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid OAuth state", "")
		return
	}

	var expected string
	if found, err := g.store.Load(ctx, stateKey, &expected); err != nil || !found || expected != nonce {
		log.Warnf("rejecting Google callback with unknown state (err: %v)", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if err := g.store.Store(ctx, settings.KeyGoogleToken, token); err != nil {
		log.Errorf("unable to store Google auth token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	if err := g.store.Store(ctx, stateKey, nil); err != nil {
		log.Warnf("unable to clear Google auth nonce: %v", err)
	}
	log.Debug("Successfully stored Google auth token for nonce: ", nonce)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

func (g *GoogleAuth) getToken(ctx context.Context) (*oauth2.Token, error) {
	var token oauth2.Token
	found, err := g.store.Load(ctx, settings.KeyGoogleToken, &token)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &token, nil
}

func (g *GoogleAuth) getClient(ctx context.Context) (*http.Client, error) {
	token, err := g.getToken(ctx)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	return g.oauthConfig.Client(context.Background(), token), nil
}

func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Store(r.Context(), settings.KeyGoogleToken, nil); err != nil {
		log.Errorf("failed to delete Google token: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
