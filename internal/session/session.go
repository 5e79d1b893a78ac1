// Пакет session — сессии HelpDeskHub UI.
// Сессия (bearer token + минимальная identity) хранится в зашифрованном
// cookie браузера (AES-256-GCM). Локальной проверки срока действия токена
// нет: аутентифицирован тот, у кого есть cookie с токеном, а истечение
// сессии сигнализирует backend через 401.
package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Имя cookie для зашифрованной сессии.
const CookieName = "helpdesk_session"

// Максимальный возраст cookie сессии (24 часа).
// Если bearer token содержит читаемый exp-claim с меньшим сроком,
// cookie ограничивается им.
const CookieMaxAge = 24 * 60 * 60

// ErrNoSession — в контексте запроса нет сессии.
var ErrNoSession = errors.New("сессия отсутствует")

// Data — данные сессии, хранящиеся в зашифрованном cookie.
// Клиентская проекция аутентифицированного пользователя.
type Data struct {
	// Token — bearer token от auth-сервиса. Непрозрачен для UI.
	Token string `json:"token"`
	// UserID — id пользователя из ответа login.
	UserID int64 `json:"userId"`
	// Email — email, введённый при входе.
	Email string `json:"email"`
	// Role — роль пользователя (ADMIN, EMPLOYEE, CLIENT).
	Role string `json:"role"`
}

// IsAuthenticated возвращает true, если в сессии есть токен.
// Срок действия токена локально не проверяется.
func (d *Data) IsAuthenticated() bool {
	return d != nil && d.Token != ""
}

// Manager — менеджер сессий: шифрует/дешифрует Data в HTTP cookie
// через AES-256-GCM.
type Manager struct {
	// gcm — AEAD cipher для шифрования/дешифрования.
	gcm cipher.AEAD
	// secure — использовать Secure flag для cookie (true для HTTPS).
	secure bool
}

// NewManager создаёт новый менеджер сессий.
// key — ключ для AES-256-GCM: base64 от 32 байт или произвольная строка
// (хешируется SHA-256 до 32 байт). Пустой ключ — случайный, сессии
// не переживают рестарт.
func NewManager(key string, secure bool) (*Manager, error) {
	var keyBytes []byte

	if key == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			// Не base64 — хешируем строку до 32 байт (для удобства конфигурации)
			h := sha256.Sum256([]byte(key))
			keyBytes = h[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &Manager{gcm: gcm, secure: secure}, nil
}

// Encrypt шифрует Data и возвращает base64-строку.
func (m *Manager) Encrypt(data *Data) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	// Уникальный nonce для каждого шифрования, prepended к ciphertext
	nonce := make([]byte, m.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := m.gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt дешифрует base64-строку обратно в Data.
func (m *Manager) Decrypt(encrypted string) (*Data, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := m.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := m.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var data Data
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}

	return &data, nil
}

// Issue устанавливает зашифрованный session cookie в ответ (login).
func (m *Manager) Issue(w http.ResponseWriter, data *Data) error {
	encrypted, err := m.Encrypt(data)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encrypted,
		Path:     "/",
		MaxAge:   cookieMaxAge(data.Token),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// FromRequest извлекает и дешифрует Data из cookie запроса.
// Возвращает nil, nil если cookie отсутствует.
func (m *Manager) FromRequest(r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	return m.Decrypt(cookie.Value)
}

// Clear удаляет session cookie из ответа (logout).
// Безусловно и без ошибок.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieMaxAge возвращает возраст cookie: CookieMaxAge, ограниченный
// exp-claim токена, если тот разбирается как JWT. Подпись НЕ проверяется —
// токен непрозрачен, exp используется только чтобы не хранить cookie
// дольше заведомо истёкшего токена.
func cookieMaxAge(token string) int {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return CookieMaxAge
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return CookieMaxAge
	}

	ttl := int(exp.Unix() - nowUnix())
	if ttl <= 0 || ttl > CookieMaxAge {
		return CookieMaxAge
	}
	return ttl
}

// nowUnix — текущее время Unix (выделено для подмены в тестах).
var nowUnix = func() int64 {
	return time.Now().Unix()
}

// --- Контекст запроса ---

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// contextKeySession — данные сессии в контексте запроса.
const contextKeySession contextKey = "session"

// WithContext возвращает контекст с привязанной сессией.
// Используется auth middleware и диспетчером уведомлений.
func WithContext(ctx context.Context, data *Data) context.Context {
	return context.WithValue(ctx, contextKeySession, data)
}

// FromContext извлекает Data из контекста запроса.
// Возвращает nil если сессия не привязана (запрос не прошёл auth middleware).
func FromContext(ctx context.Context) *Data {
	data, ok := ctx.Value(contextKeySession).(*Data)
	if !ok {
		return nil
	}
	return data
}

// TokenFromContext возвращает bearer token из сессии в контексте.
// Реализует hdclient.TokenProvider.
func TokenFromContext(ctx context.Context) (string, error) {
	data := FromContext(ctx)
	if !data.IsAuthenticated() {
		return "", ErrNoSession
	}
	return data.Token, nil
}
