package i18n

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jeandeaual/go-locale"
)

// EnvLang forces the UI language when set.
const EnvLang = "POMOHATCH_LANG"

var supported = []string{"pt", "es", "ru"}

var (
	mu   sync.RWMutex
	lang string
)

var translations = map[string]map[string]string{
	"Focus": {
		"pt": "Foco",
		"es": "Enfoque",
		"ru": "Фокус",
	},
	"Break": {
		"pt": "Pausa",
		"es": "Descanso",
		"ru": "Перерыв",
	},
	"Long Break": {
		"pt": "Pausa Longa",
		"es": "Descanso Largo",
		"ru": "Долгий перерыв",
	},
	"Start": {
		"pt": "Iniciar",
		"es": "Iniciar",
		"ru": "Старт",
	},
	"Pause": {
		"pt": "Pausar",
		"es": "Pausar",
		"ru": "Пауза",
	},
	"Reset": {
		"pt": "Resetar",
		"es": "Reiniciar",
		"ru": "Сброс",
	},
	"Complete Now": {
		"pt": "Concluir Agora",
		"es": "Completar Ahora",
		"ru": "Завершить",
	},
	"Points": {
		"pt": "Pontos",
		"es": "Puntos",
		"ru": "Очки",
	},
	"Sessions": {
		"pt": "Sessões",
		"es": "Sesiones",
		"ru": "Сессии",
	},
	"Time's up!": {
		"pt": "Acabou o tempo!",
		"es": "¡Se acabó el tiempo!",
		"ru": "Время вышло!",
	},
	"Completing this session awards +1 Pomodoro point.": {
		"pt": "Concluir esta sessão vale +1 ponto Pomodoro.",
		"es": "Completar esta sesión otorga +1 punto Pomodoro.",
		"ru": "Завершение этой сессии даёт +1 очко Помодоро.",
	},
	"Break sessions do not award points.": {
		"pt": "Pausas não valem pontos.",
		"es": "Los descansos no otorgan puntos.",
		"ru": "Перерывы не приносят очков.",
	},
	"Pause the timer to change mode": {
		"pt": "Pause o timer para trocar de modo",
		"es": "Pausa el temporizador para cambiar de modo",
		"ru": "Поставьте таймер на паузу, чтобы сменить режим",
	},
}

func init() {
	SetLang(detect())
}

func detect() string {
	if forcedLang := strings.TrimSpace(os.Getenv(EnvLang)); forcedLang != "" {
		slog.Debug("i18n: language forced by environment", "var", EnvLang, "lang", forcedLang)
		return forcedLang
	}

	userLocales, err := locale.GetLocales()
	if err != nil {
		slog.Debug("i18n: could not get user locale, defaulting to english", "error", err)
		return "en"
	}
	if len(userLocales) == 0 {
		slog.Debug("i18n: no user locale detected, defaulting to english")
		return "en"
	}
	slog.Debug("i18n: detected user locale", "locale", userLocales[0])
	return userLocales[0]
}

// Normalize reduces a locale tag such as "pt_BR" to a supported language,
// falling back to "en".
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, l := range supported {
		if strings.HasPrefix(tag, l) {
			return l
		}
	}
	return "en"
}

// SetLang switches the active language. Empty keeps the current one.
func SetLang(tag string) {
	if strings.TrimSpace(tag) == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	lang = Normalize(tag)
}

func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if translated, ok := translations[key][lang]; ok {
		return translated
	}
	return key
}

func GetLang() string {
	mu.RLock()
	defer mu.RUnlock()
	return lang
}
