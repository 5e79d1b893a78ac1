// Пакет passhash — детерминированное bcrypt-хеширование паролей
// с фиксированной солью. user-сервис не пересчитывает bcrypt, а сравнивает
// присланные хеши на равенство, поэтому каждый клиент обязан давать
// один и тот же хеш для одного и того же пароля. Стандартный
// bcrypt.GenerateFromPassword здесь непригоден: он всегда генерирует
// случайную соль.
//
// Алгоритм повторяет bcrypt поверх blowfish.NewSaltedCipher/ExpandKey
// (ExpandKey экспортирован в golang.org/x/crypto/blowfish именно для bcrypt).
// Результат побайтово совместим с bcrypt.CompareHashAndPassword.
package passhash

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// FixedSalt — префикс bcrypt-хеша: версия 2a, cost 10 и фиксированная соль.
// Значение — контракт user-сервиса, менять его нельзя: все хранимые
// хеши посчитаны с этой солью.
const FixedSalt = "$2a$10$KbQiZtWxqMZ9k2FvO6yLUO"

const (
	saltCost    = 10
	encodedSalt = "KbQiZtWxqMZ9k2FvO6yLUO"

	// bcrypt учитывает не более 72 байт пароля.
	maxPasswordLen = 72
	// Хеш кодирует первые 23 байта шифротекста.
	cryptedHashSize = 23
)

// bcrypt использует собственный base64-алфавит, не совпадающий со стандартным.
var bcEncoding = base64.NewEncoding("./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// magicCipherData — "OrpheanBeholderScryDoubt", константа bcrypt,
// шифруемая настроенным blowfish.
var magicCipherData = []byte{
	0x4f, 0x72, 0x70, 0x68, 0x65, 0x61, 0x6e, 0x42,
	0x65, 0x68, 0x6f, 0x6c, 0x64, 0x65, 0x72, 0x53,
	0x63, 0x72, 0x79, 0x44, 0x6f, 0x75, 0x62, 0x74,
}

// Hash возвращает bcrypt-хеш пароля с фиксированной солью.
// Для одного пароля результат всегда одинаков.
func Hash(password string) (string, error) {
	if len(password) > maxPasswordLen {
		return "", fmt.Errorf("пароль длиннее %d байт не поддерживается bcrypt", maxPasswordLen)
	}

	salt, err := base64Decode([]byte(encodedSalt))
	if err != nil {
		return "", fmt.Errorf("декодирование соли: %w", err)
	}

	c, err := expensiveBlowfishSetup([]byte(password), saltCost, salt)
	if err != nil {
		return "", fmt.Errorf("настройка blowfish: %w", err)
	}

	cipherData := make([]byte, len(magicCipherData))
	copy(cipherData, magicCipherData)
	for i := 0; i < len(cipherData); i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(cipherData[i:i+8], cipherData[i:i+8])
		}
	}

	return FixedSalt + string(base64Encode(cipherData[:cryptedHashSize])), nil
}

// expensiveBlowfishSetup выполняет EksBlowfishSetup: 2^cost раундов
// расширения ключа паролем и солью.
func expensiveBlowfishSetup(key []byte, cost uint, salt []byte) (*blowfish.Cipher, error) {
	// Версия 2a: пароль завершается нулевым байтом
	ckey := append(key[:len(key):len(key)], 0)

	c, err := blowfish.NewSaltedCipher(ckey, salt)
	if err != nil {
		return nil, err
	}

	rounds := uint64(1) << cost
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(ckey, c)
		blowfish.ExpandKey(salt, c)
	}
	return c, nil
}

func base64Encode(src []byte) []byte {
	n := bcEncoding.EncodedLen(len(src))
	dst := make([]byte, n)
	bcEncoding.Encode(dst, src)
	for n > 0 && dst[n-1] == '=' {
		n--
	}
	return dst[:n]
}

func base64Decode(src []byte) ([]byte, error) {
	if rem := len(src) % 4; rem != 0 {
		padded := make([]byte, len(src), len(src)+4-rem)
		copy(padded, src)
		for i := 0; i < 4-rem; i++ {
			padded = append(padded, '=')
		}
		src = padded
	}

	dst := make([]byte, bcEncoding.DecodedLen(len(src)))
	n, err := bcEncoding.Decode(dst, src)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
