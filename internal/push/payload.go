package push

import (
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/fairshare/internal/model"
)

// Kinds of message the client knows how to route.
const (
	KindOffer = "offer"
	KindSwap  = "swap"
	KindTest  = "test"
)

// Payload is the JSON sent to the push service.
type Payload struct {
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	URL          string `json:"url,omitempty"`
	Tag          string `json:"tag,omitempty"`
	AssignmentID int64  `json:"assignment_id,omitempty"`
	Day          string `json:"day,omitempty"`
}

// Offers and swaps only matter until the chore's day ends.
func (p Payload) urgency() webpush.Urgency {
	if p.Kind == KindOffer || p.Kind == KindSwap {
		return webpush.UrgencyHigh
	}
	return webpush.UrgencyNormal
}

// OfferPayload tells a member that a skipped chore can be taken over.
func OfferPayload(a *model.Assignment, o model.Offer) Payload {
	return Payload{
		Kind:         KindOffer,
		Title:        "Chore up for grabs",
		Body:         fmt.Sprintf("%s skipped %q. Take it for %g bonus points.", a.AssigneeName, a.ChoreTitle, o.Bonus),
		URL:          "/offers",
		Tag:          fmt.Sprintf("offer-%d", o.ID),
		AssignmentID: a.ID,
		Day:          o.Day,
	}
}

// SwapPayload tells the recipient of a swap request what is on the table.
func SwapPayload(req *model.SwapRequest, offered *model.Assignment) Payload {
	body := fmt.Sprintf("%s wants to trade %q with you.", offered.AssigneeName, offered.ChoreTitle)
	if req.Message != "" {
		body += " " + req.Message
	}
	return Payload{
		Kind:         KindSwap,
		Title:        "Swap request",
		Body:         body,
		URL:          "/swaps",
		Tag:          fmt.Sprintf("swap-%d", req.ID),
		AssignmentID: req.RequestedAssignmentID,
		Day:          req.Day,
	}
}

func TestPayload() Payload {
	return Payload{
		Kind:  KindTest,
		Title: "Test notification",
		Body:  "Push notifications are working.",
		URL:   "/",
		Tag:   "test",
	}
}
