package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/roxas19/DRP/config"
	"github.com/roxas19/DRP/models"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	youTubeAPIBase = "https://www.googleapis.com/youtube/v3"
	youTubeScope   = "https://www.googleapis.com/auth/youtube.force-ssl"
	youTubeTokenID = 1
)

// ErrYouTubeNotLinked is returned until the platform account is linked.
var ErrYouTubeNotLinked = errors.New("YouTube account not linked. Visit /ytlive/oauth to authenticate")

// StreamInfo is the RTMP ingestion point of a created stream.
type StreamInfo struct {
	ID        string
	StreamKey string
	RTMPURL   string
}

// Broadcaster is the subset of the YouTube Live API the platform uses.
type Broadcaster interface {
	CreateBroadcast(ctx context.Context, title, description string, start time.Time) (string, error)
	CreateStream(ctx context.Context, title string) (*StreamInfo, error)
	Bind(ctx context.Context, broadcastID, streamID string) error
	Transition(ctx context.Context, broadcastID, status string) error
}

// YouTubeOAuthConfig builds the OAuth2 client config from AppConfig.
func YouTubeOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.AppConfig.YouTubeClientID,
		ClientSecret: config.AppConfig.YouTubeClientSecret,
		RedirectURL:  config.AppConfig.YouTubeRedirectURI,
		Scopes:       []string{youTubeScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

// SaveYouTubeToken upserts the single platform token row.
func SaveYouTubeToken(db *gorm.DB, tok *oauth2.Token) error {
	row := models.YouTubeToken{
		ID:           youTubeTokenID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

// YouTubeClient talks to the YouTube Data API v3 with the stored platform
// token, refreshing and persisting it when it expires.
type YouTubeClient struct {
	db    *gorm.DB
	oauth *oauth2.Config
	http  *resty.Client
}

func NewYouTubeClient(db *gorm.DB, oauthCfg *oauth2.Config, baseURL string) *YouTubeClient {
	if baseURL == "" {
		baseURL = youTubeAPIBase
	}
	return &YouTubeClient{
		db:    db,
		oauth: oauthCfg,
		http:  resty.New().SetBaseURL(baseURL).SetTimeout(15 * time.Second),
	}
}

func (y *YouTubeClient) accessToken(ctx context.Context) (string, error) {
	var row models.YouTubeToken
	if err := y.db.WithContext(ctx).First(&row, youTubeTokenID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrYouTubeNotLinked
		}
		return "", err
	}
	stored := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       row.ExpiresAt,
	}
	tok, err := y.oauth.TokenSource(ctx, stored).Token()
	if err != nil {
		return "", fmt.Errorf("refresh youtube token: %w", err)
	}
	if tok.AccessToken != stored.AccessToken {
		if tok.RefreshToken == "" {
			tok.RefreshToken = stored.RefreshToken
		}
		if err := SaveYouTubeToken(y.db.WithContext(ctx), tok); err != nil {
			log.Printf("[YOUTUBE] Error saving refreshed token: %v", err)
		}
	}
	return tok.AccessToken, nil
}

func (y *YouTubeClient) post(ctx context.Context, path string, query map[string]string, body, result interface{}) error {
	token, err := y.accessToken(ctx)
	if err != nil {
		return err
	}
	req := y.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(query)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("youtube %s: %d %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}

func (y *YouTubeClient) CreateBroadcast(ctx context.Context, title, description string, start time.Time) (string, error) {
	body := map[string]interface{}{
		"snippet": map[string]interface{}{
			"title":              title,
			"description":        description,
			"scheduledStartTime": start.UTC().Format(time.RFC3339),
		},
		"status": map[string]interface{}{"privacyStatus": "public"},
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := y.post(ctx, "/liveBroadcasts", map[string]string{"part": "snippet,status"}, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (y *YouTubeClient) CreateStream(ctx context.Context, title string) (*StreamInfo, error) {
	body := map[string]interface{}{
		"snippet": map[string]interface{}{"title": title},
		"cdn": map[string]interface{}{
			"frameRate":     "30fps",
			"ingestionType": "rtmp",
			"resolution":    "720p",
		},
	}
	var out struct {
		ID  string `json:"id"`
		CDN struct {
			IngestionInfo struct {
				StreamName       string `json:"streamName"`
				IngestionAddress string `json:"ingestionAddress"`
			} `json:"ingestionInfo"`
		} `json:"cdn"`
	}
	if err := y.post(ctx, "/liveStreams", map[string]string{"part": "snippet,cdn"}, body, &out); err != nil {
		return nil, err
	}
	return &StreamInfo{
		ID:        out.ID,
		StreamKey: out.CDN.IngestionInfo.StreamName,
		RTMPURL:   out.CDN.IngestionInfo.IngestionAddress,
	}, nil
}

func (y *YouTubeClient) Bind(ctx context.Context, broadcastID, streamID string) error {
	return y.post(ctx, "/liveBroadcasts/bind", map[string]string{
		"part":     "id,contentDetails",
		"id":       broadcastID,
		"streamId": streamID,
	}, nil, nil)
}

// Transition moves a broadcast to "live" or "complete".
func (y *YouTubeClient) Transition(ctx context.Context, broadcastID, status string) error {
	return y.post(ctx, "/liveBroadcasts/transition", map[string]string{
		"part":            "status",
		"id":              broadcastID,
		"broadcastStatus": status,
	}, nil, nil)
}
