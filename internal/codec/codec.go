// Package codec реализует преобразование между числовым идентификатором видео (av)
// и его публичной формой (BV).
//
// Оба направления являются чистыми функциями: состояния нет, пакет безопасен
// для конкурентного использования.
package codec

import (
	"errors"
	"fmt"
)

const (
	// Alphabet задаёт символы base58 в порядке значений цифр
	Alphabet = "FcwAPNKTMug3GV5Lj7EJnHpWsx4tb8haYeviqBz6rkCy12mUSDQX9RdoZf"
	// Prefix: фиксированное начало любого BV
	Prefix = "BV1"
	// XORMask маскирует рабочее значение
	XORMask uint64 = 23442827791579
	// BitMask отрезает маркерный бит при декодировании (2^51 - 1)
	BitMask uint64 = 2251799813685247
	// HighBit выставляется перед маскированием, чтобы ширина значения была фиксированной
	HighBit uint64 = 1 << 51
	// MaxAID: первый недопустимый числовой идентификатор
	MaxAID = HighBit

	base    = uint64(len(Alphabet))
	bodyLen = 9
	// Length: длина BV вместе с префиксом
	Length = len(Prefix) + bodyLen
)

var (
	ErrInvalidFormat    = errors.New("invalid BV format")
	ErrInvalidCharacter = errors.New("invalid BV character")
	ErrOutOfRange       = errors.New("aid out of range")
)

// encodeMap: индекс цифры -> позиция символа в теле
var encodeMap = [bodyLen]int{8, 7, 0, 5, 1, 3, 2, 4, 6}

// decodeMap обходит позиции от старшей цифры к младшей
var decodeMap = [bodyLen]int{6, 4, 2, 3, 1, 5, 0, 7, 8}

// alphabetIndex: символ -> значение цифры, -1 для символов вне алфавита
var alphabetIndex = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		t[Alphabet[i]] = int8(i)
	}
	return t
}()

// Encode преобразует av в BV.
// Возвращает ErrOutOfRange, если aid не помещается в 51 бит.
func Encode(aid uint64) (string, error) {
	if aid >= MaxAID {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, aid)
	}
	var body [bodyLen]byte
	tmp := (HighBit | aid) ^ XORMask
	for i := 0; i < bodyLen; i++ {
		body[encodeMap[i]] = Alphabet[tmp%base]
		tmp /= base
	}
	return Prefix + string(body[:]), nil
}

// MustEncode как Encode, но паникует на недопустимом aid
func MustEncode(aid uint64) string {
	bvid, err := Encode(aid)
	if err != nil {
		panic(err)
	}
	return bvid
}

// Decode преобразует BV в av.
func Decode(bvid string) (uint64, error) {
	if len(bvid) != Length {
		return 0, fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidFormat, Length, len(bvid))
	}
	if bvid[:len(Prefix)] != Prefix {
		return 0, fmt.Errorf("%w: %q must start with %q", ErrInvalidFormat, bvid, Prefix)
	}
	body := bvid[len(Prefix):]
	var tmp uint64
	for i := 0; i < bodyLen; i++ {
		c := body[decodeMap[i]]
		idx := alphabetIndex[c]
		if idx < 0 {
			return 0, fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, c, len(Prefix)+decodeMap[i])
		}
		tmp = tmp*base + uint64(idx)
	}
	return (tmp & BitMask) ^ XORMask, nil
}

// IsValid сообщает, декодируется ли строка как BV
func IsValid(bvid string) bool {
	_, err := Decode(bvid)
	return err == nil
}
