package app

import (
	"context"
	"errors"

	"midway_hotel/internal/domain"
)

type MessageKey string

const (
	MsgAddressNotFound     MessageKey = "address_not_found"
	MsgRetry               MessageKey = "retry"
	MsgEnterPlaces         MessageKey = "enter_places"
	MsgInvalidInput        MessageKey = "invalid_input"
	MsgLocationUnavailable MessageKey = "location_unavailable"
	MsgSearchFailed        MessageKey = "search_failed"
	MsgNotConfigured       MessageKey = "not_configured"
	MsgCurrentLocation     MessageKey = "current_location"
	MsgAddressUnavailable  MessageKey = "address_unavailable"
	MsgNoHotels            MessageKey = "no_hotels"
)

var catalog = map[string]map[MessageKey]string{
	"ja": {
		MsgAddressNotFound:     "住所が見つかりませんでした",
		MsgRetry:               "通信に失敗しました。もう一度お試しください",
		MsgEnterPlaces:         "出発地と目的地を入力してください",
		MsgInvalidInput:        "入力内容に誤りがあります",
		MsgLocationUnavailable: "現在地取得に失敗しました",
		MsgSearchFailed:        "データの取得に失敗しました",
		MsgNotConfigured:       "APIキーが設定されていません",
		MsgCurrentLocation:     "現在地",
		MsgAddressUnavailable:  "住所検索エラー",
		MsgNoHotels:            "ホテル情報が見つかりませんでした。",
	},
	"en": {
		MsgAddressNotFound:     "Address not found",
		MsgRetry:               "Network error, please try again",
		MsgEnterPlaces:         "Please enter both a start and a destination",
		MsgInvalidInput:        "Some of the input is invalid",
		MsgLocationUnavailable: "Could not get your current location",
		MsgSearchFailed:        "Failed to fetch hotel data",
		MsgNotConfigured:       "The hotel search API key is not configured",
		MsgCurrentLocation:     "Current location",
		MsgAddressUnavailable:  "Address lookup failed",
		MsgNoHotels:            "No hotels found.",
	},
}

// DefaultLang is used for unknown or empty language codes.
const DefaultLang = "ja"

func normLang(lang string) string {
	if _, ok := catalog[lang]; ok {
		return lang
	}
	return DefaultLang
}

func Message(lang string, key MessageKey) string {
	return catalog[normLang(lang)][key]
}

// ErrorKind is a stable label for the error taxonomy.
func ErrorKind(err error) string {
	var he *domain.HTTPError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConfig):
		return "config"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLocationUnavailable):
		return "location"
	case errors.As(err, &he):
		return "http"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, domain.ErrNetwork),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "network"
	default:
		return "unknown"
	}
}

// UserMessage is the localized text shown when a search fails with err.
func UserMessage(lang string, err error) string {
	switch ErrorKind(err) {
	case "validation":
		if namesPlaces(err) {
			return Message(lang, MsgEnterPlaces)
		}
		return Message(lang, MsgInvalidInput)
	case "config":
		return Message(lang, MsgNotConfigured)
	case "not_found":
		return Message(lang, MsgAddressNotFound)
	case "location":
		return Message(lang, MsgLocationUnavailable)
	case "network":
		return Message(lang, MsgRetry)
	default:
		return Message(lang, MsgSearchFailed)
	}
}

// namesPlaces reports whether a validation failure is about the start or
// end place fields.
func namesPlaces(err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	for _, f := range ve.Fields {
		if f == "Start" || f == "End" {
			return true
		}
	}
	return false
}
