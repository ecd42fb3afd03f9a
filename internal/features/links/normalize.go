package links

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

var trackingParams = []string{
	"_ga",
	"fbclid",
	"gclid",
	"mc_eid",
	"mkt_tok",
	"msclkid",
	"pk_campaign",
	"pk_kwd",
	"utm_campaign",
	"utm_content",
	"utm_id",
	"utm_medium",
	"utm_source",
	"utm_term",
}

// NormalizeLink приводит ссылку к виду для поиска дубликатов: без www, фрагмента,
// хвостового слэша и трекинговых параметров, с отсортированным query.
// Результат может не открываться как ссылка.
func NormalizeLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	clean, err := purell.NormalizeURLString(raw, purell.FlagsUsuallySafeGreedy|purell.FlagRemoveDirectoryIndex|purell.FlagRemoveFragment|purell.FlagRemoveDuplicateSlashes|purell.FlagRemoveWWW|purell.FlagSortQuery)
	if err != nil {
		return raw
	}

	u, err := url.Parse(clean)
	if err != nil || u.RawQuery == "" {
		return clean
	}
	params := u.Query()
	for _, p := range trackingParams {
		params.Del(p)
	}
	u.RawQuery = params.Encode()
	return u.String()
}
