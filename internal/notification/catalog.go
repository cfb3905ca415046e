// Package notification renders the pt-BR title and body of inbox
// notifications from a golang.org/x/text message catalog.
package notification

import (
	"errors"
	"fmt"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Kinds of notifications.
const (
	KindBookingCreated     = "booking.created"
	KindBookingChanged     = "booking.changed"
	KindBookingCancelled   = "booking.cancelled"
	KindTermIssued         = "term.issued"
	KindTermSigned         = "term.signed"
	KindSignatureRequested = "signature.requested"
	KindSignatureCompleted = "signature.completed"
)

// ErrUnknownKind is returned for kinds without catalog entries.
var ErrUnknownKind = errors.New("unknown notification kind")

// Locale of every rendered notification.
var Locale = language.BrazilianPortuguese

// Params are the values a notification text may reference.
type Params struct {
	Actor    string
	Room     string
	Date     string
	Time     string
	Slots    int
	Document string
}

// Message is a rendered notification.
type Message struct {
	Title string
	Body  string
}

type entry struct {
	title string
	body  []catalog.Message
	args  func(Params) []any
}

var entries = map[string]entry{
	KindBookingCreated: {
		title: "Reserva confirmada",
		body: []catalog.Message{
			catalog.Var("slots", plural.Selectf(4, "%d",
				"=1", "1 horário",
				"other", "%[4]d horários",
			)),
			catalog.String("Sua reserva da sala %[1]s em %[2]s a partir de %[3]s foi registrada (${slots})."),
		},
		args: func(p Params) []any { return []any{p.Room, p.Date, p.Time, p.Slots} },
	},
	KindBookingChanged: {
		title: "Reserva alterada",
		body:  []catalog.Message{catalog.String("%[1]s alterou sua reserva da sala %[2]s em %[3]s às %[4]s.")},
		args:  func(p Params) []any { return []any{p.Actor, p.Room, p.Date, p.Time} },
	},
	KindBookingCancelled: {
		title: "Reserva cancelada",
		body:  []catalog.Message{catalog.String("%[1]s cancelou sua reserva da sala %[2]s em %[3]s às %[4]s.")},
		args:  func(p Params) []any { return []any{p.Actor, p.Room, p.Date, p.Time} },
	},
	KindTermIssued: {
		title: "Novo termo para assinatura",
		body:  []catalog.Message{catalog.String("%[1]s emitiu o termo \"%[2]s\" para você assinar.")},
		args:  func(p Params) []any { return []any{p.Actor, p.Document} },
	},
	KindTermSigned: {
		title: "Termo assinado",
		body:  []catalog.Message{catalog.String("%[1]s assinou o termo \"%[2]s\".")},
		args:  func(p Params) []any { return []any{p.Actor, p.Document} },
	},
	KindSignatureRequested: {
		title: "Nova solicitação de assinatura",
		body:  []catalog.Message{catalog.String("%[1]s solicitou uma assinatura de e-mail.")},
		args:  func(p Params) []any { return []any{p.Actor} },
	},
	KindSignatureCompleted: {
		title: "Assinatura de e-mail pronta",
		body:  []catalog.Message{catalog.String("%[1]s gerou sua assinatura de e-mail.")},
		args:  func(p Params) []any { return []any{p.Actor} },
	},
}

func titleKey(kind string) string { return kind + ".title" }
func bodyKey(kind string) string  { return kind + ".body" }

// Renderer formats notifications in the portal locale.
type Renderer struct {
	printer *message.Printer
}

// NewRenderer builds a renderer over the embedded catalog.
func NewRenderer() (*Renderer, error) {
	builder := catalog.NewBuilder(catalog.Fallback(Locale))
	for kind, e := range entries {
		if err := builder.SetString(Locale, titleKey(kind), e.title); err != nil {
			return nil, fmt.Errorf("register %s title: %w", kind, err)
		}
		if err := builder.Set(Locale, bodyKey(kind), e.body...); err != nil {
			return nil, fmt.Errorf("register %s body: %w", kind, err)
		}
	}
	return &Renderer{printer: message.NewPrinter(Locale, message.Catalog(builder))}, nil
}

// Render formats the title and body of kind.
func (r *Renderer) Render(kind string, params Params) (Message, error) {
	e, ok := entries[kind]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return Message{
		Title: r.printer.Sprintf(titleKey(kind)),
		Body:  r.printer.Sprintf(bodyKey(kind), e.args(params)...),
	}, nil
}

// Kinds lists every known kind.
func Kinds() []string {
	return []string{
		KindBookingCreated,
		KindBookingChanged,
		KindBookingCancelled,
		KindTermIssued,
		KindTermSigned,
		KindSignatureRequested,
		KindSignatureCompleted,
	}
}
