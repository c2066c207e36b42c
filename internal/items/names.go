package items

import "fmt"

// itemNames — имена ходовых предметов для текстовых списков. Таблица
// нарочно маленькая: неизвестные коды показываются как «item #XXXX».
var itemNames = map[uint16]string{
	0x09C4: "acoustic guitar",
	0x0FCB: "gold nugget",
	0x0FCC: "iron nugget",
	0x0FCD: "clay",
	0x0FCE: "stone",
	0x0FD0: "wood",
	0x0FD1: "softwood",
	0x0FD2: "hardwood",
	0x0FD4: "bamboo piece",
	0x11A1: "star fragment",
	0x11A2: "large star fragment",
	0x1205: "pearl",
	0x1299: "royal crown",
	0x129A: "crown",
	0x193C: "bells",
	0x1A28: "wooden chair",
	0x1E13: "cherry-blossom petal",
	0x2001: "summer shell",
	0x22D3: "pumpkin",
	0x2599: "grand piano",
}

// Name возвращает человекочитаемое имя предмета.
func Name(id uint16) string {
	if n, ok := itemNames[id]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("item #%04X", id)
}
