package handler

import (
    "context"       // request-scoped timeouts for the provider round trips
    "encoding/json" // decoding provider responses
    "fmt"           // building the avatar CDN URL
    "io"            // draining provider response bodies
    "log"           // server-side logging of provider failures
    "net/http"      // status codes and the outbound client
    "net/url"       // query encoding for the authorize redirect
    "strings"       // form body assembly
    "time"          // provider call timeouts

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/loan-ledger/internal/config"
    "github.com/iliyamo/loan-ledger/internal/repository"
)

// Default Discord endpoints. Overridable on the handler so tests can
// point at a local server.
const (
    discordAuthorizeURL = "https://discord.com/oauth2/authorize"
    discordTokenURL     = "https://discord.com/api/oauth2/token"
    discordMeURL        = "https://discord.com/api/users/@me"
)

// OAuthHandler implements the Discord sign-in flow: redirect out with
// a state nonce, then exchange the callback code for a token, fetch
// the profile, upsert the user and hand back the same token response
// as a local login.
type OAuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    States *repository.OAuthStateRepo
    Auth   *AuthHandler // reused for token issuance

    Client       *http.Client // outbound HTTP client
    AuthorizeURL string
    TokenURL     string
    MeURL        string
}

// NewOAuthHandler wires the Discord flow with production endpoints.
func NewOAuthHandler(cfg config.Config, users *repository.UserRepo, states *repository.OAuthStateRepo, auth *AuthHandler) *OAuthHandler {
    return &OAuthHandler{
        Cfg:          cfg,
        Users:        users,
        States:       states,
        Auth:         auth,
        Client:       &http.Client{Timeout: 10 * time.Second},
        AuthorizeURL: discordAuthorizeURL,
        TokenURL:     discordTokenURL,
        MeURL:        discordMeURL,
    }
}

// DiscordLogin handles GET /v1/auth/discord. It issues a state nonce
// and redirects the browser to Discord's authorize page.
func (h *OAuthHandler) DiscordLogin(c echo.Context) error {
    state, err := h.States.Issue(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue state failed"})
    }
    q := url.Values{}
    q.Set("client_id", h.Cfg.DiscordClientID)
    q.Set("redirect_uri", h.Cfg.DiscordRedirectURI)
    q.Set("response_type", "code")
    q.Set("scope", "identify email")
    q.Set("state", state)
    return c.Redirect(http.StatusFound, h.AuthorizeURL+"?"+q.Encode())
}

// discordTokenResp is the subset of Discord's token response we use.
type discordTokenResp struct {
    AccessToken string `json:"access_token"`
    TokenType   string `json:"token_type"`
}

// discordUser is the subset of Discord's /users/@me response we use.
type discordUser struct {
    ID         string `json:"id"`
    Username   string `json:"username"`
    GlobalName string `json:"global_name"`
    Email      string `json:"email"`
    Avatar     string `json:"avatar"`
}

// DiscordCallback handles GET /v1/auth/discord/callback. It verifies
// the state, exchanges the authorization code, fetches the profile,
// upserts the user keyed by discord_id and returns a token pair.
func (h *OAuthHandler) DiscordCallback(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    if !h.States.Verify(ctx, c.QueryParam("state")) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid state"})
    }
    code := c.QueryParam("code")
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
    }

    tok, err := h.exchangeCode(ctx, code)
    if err != nil {
        log.Printf("discord: code exchange failed: %v", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider exchange failed"})
    }
    du, err := h.fetchUser(ctx, tok.AccessToken)
    if err != nil {
        log.Printf("discord: fetch profile failed: %v", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider profile failed"})
    }

    profile := repository.DiscordProfile{
        DiscordID:   du.ID,
        Username:    du.Username,
        DisplayName: du.GlobalName,
        Email:       du.Email,
    }
    // Discord's global_name may be unset for older accounts.
    if profile.DisplayName == "" {
        profile.DisplayName = du.Username
    }
    if du.Avatar != "" {
        img := fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", du.ID, du.Avatar)
        profile.Image = &img
    }

    u, err := h.Users.UpsertDiscord(ctx, profile)
    if err != nil {
        log.Printf("discord: upsert user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    resp, err := h.Auth.issueTokens(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// exchangeCode trades an authorization code for a Discord access token.
func (h *OAuthHandler) exchangeCode(ctx context.Context, code string) (discordTokenResp, error) {
    form := url.Values{}
    form.Set("client_id", h.Cfg.DiscordClientID)
    form.Set("client_secret", h.Cfg.DiscordClientSecret)
    form.Set("grant_type", "authorization_code")
    form.Set("code", code)
    form.Set("redirect_uri", h.Cfg.DiscordRedirectURI)

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.TokenURL, strings.NewReader(form.Encode()))
    if err != nil {
        return discordTokenResp{}, err
    }
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

    res, err := h.Client.Do(req)
    if err != nil {
        return discordTokenResp{}, err
    }
    defer func() { _, _ = io.Copy(io.Discard, res.Body); _ = res.Body.Close() }()
    if res.StatusCode != http.StatusOK {
        return discordTokenResp{}, fmt.Errorf("token endpoint status %d", res.StatusCode)
    }
    var tok discordTokenResp
    if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
        return discordTokenResp{}, err
    }
    if tok.AccessToken == "" {
        return discordTokenResp{}, fmt.Errorf("token endpoint returned no access_token")
    }
    return tok, nil
}

// fetchUser loads the signed-in user's profile from Discord.
func (h *OAuthHandler) fetchUser(ctx context.Context, accessToken string) (discordUser, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.MeURL, nil)
    if err != nil {
        return discordUser{}, err
    }
    req.Header.Set("Authorization", "Bearer "+accessToken)

    res, err := h.Client.Do(req)
    if err != nil {
        return discordUser{}, err
    }
    defer func() { _, _ = io.Copy(io.Discard, res.Body); _ = res.Body.Close() }()
    if res.StatusCode != http.StatusOK {
        return discordUser{}, fmt.Errorf("users/@me status %d", res.StatusCode)
    }
    var du discordUser
    if err := json.NewDecoder(res.Body).Decode(&du); err != nil {
        return discordUser{}, err
    }
    if du.ID == "" {
        return discordUser{}, fmt.Errorf("users/@me returned no id")
    }
    return du, nil
}
