// Package chat — человеческий вариант уведомителя: форматированные
// карточки и личные сообщения через порт Messenger.
package chat

import (
	"fmt"

	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/queue"
)

// цвета карточек в духе привычных чат-эмбедов
const (
	colorBlue  = 0x3498DB
	colorGreen = 0x2ECC71
	colorRed   = 0xE74C3C
	colorGold  = 0xF1C40F
)

// лимит чатов на длину поля карточки
const fieldLimit = 1024

func truncateField(s string) string {
	r := []rune(s)
	if len(r) <= fieldLimit {
		return s
	}
	return string(r[:fieldLimit-4]) + "\n..."
}

// buildOrderCard — карточка «заказ принят» для канала и личных сообщений.
func buildOrderCard(o *domain.Order, res queue.Success, itemList string, showID bool) domain.Embed {
	e := domain.Embed{
		Title:  "Order received!",
		Color:  colorGreen,
		Footer: "You'll get a DM with your access code when it's your turn.",
	}
	e.Fields = append(e.Fields,
		domain.EmbedField{Name: "Orderer", Value: o.DisplayName, Inline: true},
		domain.EmbedField{Name: "Position", Value: fmt.Sprintf("**%d**", res.Position), Inline: true},
	)
	if res.ETA != "" {
		e.Fields = append(e.Fields, domain.EmbedField{Name: "Wait", Value: res.ETA, Inline: true})
	}
	if showID {
		e.Fields = append(e.Fields, domain.EmbedField{Name: "Order ID", Value: fmt.Sprintf("#%d", res.ID), Inline: true})
	}
	e.Fields = append(e.Fields, domain.EmbedField{Name: "Ordered items", Value: truncateField(itemList)})
	if o.Villager != nil {
		e.Fields = append(e.Fields, domain.EmbedField{
			Name:  "Villager",
			Value: fmt.Sprintf("%s will be waiting for you on the island!", o.Villager.Name),
		})
	}
	return e
}
