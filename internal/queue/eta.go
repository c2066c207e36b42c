package queue

import "fmt"

// ETAConfig — четыре временные константы (в секундах), из которых
// считается ожидаемое время до начала выдачи заказа.
type ETAConfig struct {
	ArrivalAllowance   int // время на дорогу до острова
	SetupAllowance     int // подготовка сессии перед первым заказом
	UserTimeAllowed    int // сколько даём пользователю на самовывоз
	WaitForArriverTime int // ожидание прибытия гостя
}

// Seconds — чистая функция позиции (1-based). Монотонно не убывает по
// позиции при неотрицательной конфигурации.
func (c ETAConfig) Seconds(position int) int {
	if position < 1 {
		position = 1
	}
	minSeconds := c.ArrivalAllowance + c.SetupAllowance + c.UserTimeAllowed + c.WaitForArriverTime
	addSeconds := c.ArrivalAllowance + c.UserTimeAllowed + c.WaitForArriverTime
	return minSeconds + addSeconds*(position-1)
}

// Text возвращает оценку в человекочитаемом виде.
func (c ETAConfig) Text(position int) string {
	return FormatETA(c.Seconds(position))
}

// FormatETA форматирует секунды как "HHh:MMm:SSs", либо "MMm:SSs",
// когда часов нет.
func FormatETA(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := totalSeconds % 3600 / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%02dh:%02dm:%02ds", h, m, s)
	}
	return fmt.Sprintf("%02dm:%02ds", m, s)
}
