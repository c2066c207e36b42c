package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/queue"
)

const sendTimeout = 15 * time.Second

// Notifier доставляет уведомления одного заказа его пользователю.
// Ошибки доставки после приёма только логируются: состояние очереди
// из-за чата не портится.
type Notifier struct {
	Messenger domain.Messenger
	Island    string
	ItemList  string
	Image     []byte // PNG с сеткой предметов, nil если нет
	Log       *zap.Logger

	mu    sync.Mutex
	order *domain.Order
}

var (
	_ domain.Notifier    = (*Notifier)(nil)
	_ domain.OrderBinder = (*Notifier)(nil)
)

func (n *Notifier) BindOrder(o *domain.Order) {
	n.mu.Lock()
	n.order = o
	n.mu.Unlock()
}

func (n *Notifier) current() *domain.Order {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.order
}

// ConfirmQueued шлёт приветственное DM. Ошибка здесь не даёт заказу
// попасть в очередь: пользователь с закрытыми личными сообщениями
// кода доступа всё равно не получит.
func (n *Notifier) ConfirmQueued(msg string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	e := domain.Embed{
		Title:       "You're in line!",
		Description: msg,
		Color:       colorBlue,
	}
	o := n.current()
	key := ""
	if o != nil {
		key = o.UserKey
	}
	if err := n.Messenger.SendEmbed(ctx, key, e, "", nil); err != nil {
		return fmt.Errorf("queued confirmation: %w", err)
	}
	return nil
}

// AnnounceAdmitted шлёт карточку принятого заказа (позиция, ожидание,
// список предметов, картинка). Вызывается адаптером после успешного
// приёма.
func (n *Notifier) AnnounceAdmitted(res queue.Success, showID bool) {
	o := n.current()
	if o == nil {
		return
	}
	e := buildOrderCard(o, res, n.ItemList, showID)
	imageName := ""
	if n.Image != nil {
		imageName = "items.png"
	}
	n.send(o, e, imageName, n.Image)
}

func (n *Notifier) NotifyInitializing(msg string) {
	o := n.current()
	if o == nil {
		return
	}
	e := domain.Embed{
		Title: "Your order is starting!",
		Description: "Make sure your **pockets are empty**.\n" +
			"Talk to Orville at the airport and stay on the **code entry screen**.\n" +
			"I'll send you the access code in a moment!",
		Color: colorBlue,
	}
	if msg != "" {
		e.Description += "\n" + msg
	}
	n.send(o, e, "", nil)
}

func (n *Notifier) NotifyReady(msg, accessCode string) {
	o := n.current()
	if o == nil {
		return
	}
	e := domain.Embed{
		Title:       "Access code ready!",
		Description: fmt.Sprintf("I'm waiting for you, %s!", o.DisplayName),
		Color:       colorGold,
	}
	e.Fields = append(e.Fields,
		domain.EmbedField{Name: "Access code", Value: fmt.Sprintf("```%s```", accessCode), Inline: true},
	)
	if n.Island != "" {
		e.Fields = append(e.Fields, domain.EmbedField{Name: "Island", Value: n.Island, Inline: true})
	}
	imageName := ""
	if n.Image != nil {
		imageName = "items.png"
	}
	n.send(o, e, imageName, n.Image)
}

func (n *Notifier) NotifyCancelled(msg string, faulted bool) {
	o := n.current()
	if o == nil {
		return
	}
	e := domain.Embed{
		Title:       "Order cancelled",
		Description: msg,
		Color:       colorRed,
	}
	n.send(o, e, "", nil)
}

func (n *Notifier) NotifyFinished(msg string) {
	o := n.current()
	if o == nil {
		return
	}
	desc := "Thanks for your order! Enjoy your items!"
	if msg != "" {
		desc = msg
	}
	e := domain.Embed{
		Title:       "Order complete!",
		Description: desc,
		Color:       colorGreen,
	}
	n.send(o, e, "", nil)
}

func (n *Notifier) NotifyGeneric(msg string) {
	o := n.current()
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := n.Messenger.SendText(ctx, o.UserKey, msg); err != nil {
		n.Log.Warn("chat text delivery failed",
			zap.Uint64("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (n *Notifier) send(o *domain.Order, e domain.Embed, imageName string, image []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := n.Messenger.SendEmbed(ctx, o.UserKey, e, imageName, image); err != nil {
		n.Log.Warn("chat embed delivery failed",
			zap.Uint64("order_id", o.ID),
			zap.String("title", e.Title),
			zap.Error(err),
		)
	}
}
