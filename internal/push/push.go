package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/mwhitlock/lexcal/internal/model"
)

// ErrExpired means the push service answered 410 Gone: the subscription is
// dead and its row should be pruned.
var ErrExpired = errors.New("push subscription expired")

const (
	subscriber = "mailto:noreply@lexcal.app"
	ttlSeconds = 86400
)

// Payload is the JSON body delivered to the service worker.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Service sends web push notifications signed with a VAPID key pair.
type Service struct {
	publicKey  string
	privateKey string
}

func NewService(publicKey, privateKey string) *Service {
	return &Service{publicKey: publicKey, privateKey: privateKey}
}

// VAPIDPublicKey returns the public key the browser needs to subscribe.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send delivers one notification to one subscription.
func (s *Service) Send(sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      subscriber,
		TTL:             ttlSeconds,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		return ErrExpired
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys creates a fresh P-256 key pair, base64url-encoded the
// way the browser Push API expects.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	return base64.RawURLEncoding.EncodeToString(pubBytes),
		base64.RawURLEncoding.EncodeToString(key.D.Bytes()), nil
}
