// Package items разбирает пользовательский ввод в конкретные предметы
// заказа и проверяет его безопасность. Ядро очереди этим пакетом не
// пользуется: для него заказ — непрозрачный Payload.
package items

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/island-order-service/internal/domain"
)

// MaxOrder — верхний предел предметов в одном заказе; лишнее обрезается.
const MaxOrder = 40

// maxItemID — верхняя граница валидных идентификаторов предметов.
const maxItemID = 0x32E6

// unsafeIDs — предметы, которые нельзя выдавать: портят сохранение или
// используются для эксплойтов.
var unsafeIDs = map[uint16]bool{
	0x1A5C: true,
	0x1A5D: true,
	0x2F8D: true,
	0x2FBD: true,
}

// Item — один предмет заказа.
type Item struct {
	ID    uint16 `json:"id"`
	Count int    `json:"count"`
}

// Bundle — проверенный список предметов. Реализует domain.Payload.
type Bundle []Item

var _ domain.Payload = Bundle(nil)

// Len — суммарное число предметов с учётом количества.
func (b Bundle) Len() int {
	total := 0
	for _, it := range b {
		total += it.Count
	}
	return total
}

// Describe — сгруппированный список вида «• имя xN», по строке на предмет.
func (b Bundle) Describe() string {
	var order []uint16
	counts := make(map[uint16]int)
	for _, it := range b {
		if counts[it.ID] == 0 {
			order = append(order, it.ID)
		}
		counts[it.ID] += it.Count
	}
	if len(order) == 0 {
		return "no items"
	}
	var sb strings.Builder
	for i, id := range order {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if n := counts[id]; n > 1 {
			fmt.Fprintf(&sb, "• %s x%d", Name(id), n)
		} else {
			fmt.Fprintf(&sb, "• %s", Name(id))
		}
	}
	return sb.String()
}

// Parse разбирает ввод пользователя: токены через пробел, каждый —
// шестнадцатеричный код предмета, опционально с количеством через «x»
// (например "0FCB x10 09C4"). Количество ограничено 1..99.
func Parse(input string) (Bundle, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty item list", domain.ErrValidation)
	}

	var bundle Bundle
	for _, tok := range fields {
		idPart := tok
		count := 1
		if i := strings.IndexAny(tok, "xX"); i > 0 {
			idPart = tok[:i]
			n, err := strconv.Atoi(tok[i+1:])
			if err != nil || n < 1 || n > 99 {
				return nil, fmt.Errorf("%w: bad count in %q", domain.ErrValidation, tok)
			}
			count = n
		}
		id, err := strconv.ParseUint(idPart, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: bad item code %q", domain.ErrValidation, tok)
		}
		if id == 0 {
			continue // пустой слот, просто пропускаем
		}
		bundle = append(bundle, Item{ID: uint16(id), Count: count})
	}
	if len(bundle) == 0 {
		return nil, fmt.Errorf("%w: no valid items could be parsed", domain.ErrValidation)
	}
	if len(bundle) > MaxOrder {
		bundle = bundle[:MaxOrder]
	}
	if err := bundle.Sane(); err != nil {
		return nil, err
	}
	return bundle, nil
}

// Sane проверяет, что ни один предмет не способен навредить сохранению.
func (b Bundle) Sane() error {
	for _, it := range b {
		if it.ID > maxItemID {
			return fmt.Errorf("%w: item %04X is out of range", domain.ErrValidation, it.ID)
		}
		if unsafeIDs[it.ID] {
			return fmt.Errorf("%w: item %04X would damage the save", domain.ErrValidation, it.ID)
		}
	}
	return nil
}
