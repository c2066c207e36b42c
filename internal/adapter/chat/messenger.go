package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/example/island-order-service/internal/domain"
)

// WebhookMessenger доставляет карточки в webhook-совместимый чат
// (формат полезной нагрузки — как у Discord-вебхуков). Упоминание
// пользователя кладётся в content по его ключу.
type WebhookMessenger struct {
	URL    string
	Client *http.Client
}

var _ domain.Messenger = (*WebhookMessenger)(nil)

func NewWebhookMessenger(url string, timeout time.Duration) *WebhookMessenger {
	return &WebhookMessenger{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

type webhookEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []domain.EmbedField `json:"fields,omitempty"`
	Footer      *webhookFooter      `json:"footer,omitempty"`
	Image       *webhookImage       `json:"image,omitempty"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

type webhookImage struct {
	URL string `json:"url"`
}

type webhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []webhookEmbed `json:"embeds,omitempty"`
}

func mention(userKey string) string {
	if userKey == "" {
		return ""
	}
	return fmt.Sprintf("<@%s>", userKey)
}

func toWebhookEmbed(e domain.Embed, imageName string) webhookEmbed {
	we := webhookEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
		Fields:      e.Fields,
	}
	if e.Footer != "" {
		we.Footer = &webhookFooter{Text: e.Footer}
	}
	if imageName != "" {
		we.Image = &webhookImage{URL: "attachment://" + imageName}
	}
	return we
}

// SendEmbed отправляет карточку; с картинкой — multipart с вложением.
func (m *WebhookMessenger) SendEmbed(ctx context.Context, userKey string, e domain.Embed, imageName string, image []byte) error {
	payload := webhookPayload{
		Content: mention(userKey),
		Embeds:  []webhookEmbed{toWebhookEmbed(e, imageName)},
	}
	if imageName == "" || image == nil {
		return m.postJSON(ctx, payload)
	}
	return m.postMultipart(ctx, payload, imageName, image)
}

func (m *WebhookMessenger) SendText(ctx context.Context, userKey string, text string) error {
	content := text
	if mn := mention(userKey); mn != "" {
		content = mn + " " + text
	}
	return m.postJSON(ctx, webhookPayload{Content: content})
}

func (m *WebhookMessenger) postJSON(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return m.do(req)
}

func (m *WebhookMessenger) postMultipart(ctx context.Context, payload webhookPayload, imageName string, image []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	jsonPart, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	if err := w.WriteField("payload_json", string(jsonPart)); err != nil {
		return err
	}
	filePart, err := w.CreateFormFile("files[0]", imageName)
	if err != nil {
		return err
	}
	if _, err := filePart.Write(image); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return m.do(req)
}

func (m *WebhookMessenger) do(req *http.Request) error {
	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post: unexpected status %d", resp.StatusCode)
	}
	return nil
}
