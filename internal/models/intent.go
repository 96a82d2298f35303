package models

import (
	"fmt"
	"strings"
)

// Intent is the support topic attached to a turn.
type Intent string

const (
	IntentCreateAccount          Intent = "create_account"
	IntentDeleteAccount          Intent = "delete_account"
	IntentEditAccount            Intent = "edit_account"
	IntentRecoverPassword        Intent = "recover_password"
	IntentRegistrationProblems   Intent = "registration_problems"
	IntentSwitchAccount          Intent = "switch_account"
	IntentCheckCancellationFee   Intent = "check_cancellation_fee"
	IntentContactCustomerService Intent = "contact_customer_service"
	IntentContactHumanAgent      Intent = "contact_human_agent"
	IntentDeliveryOptions        Intent = "delivery_options"
	IntentDeliveryPeriod         Intent = "delivery_period"
	IntentComplaint              Intent = "complaint"
	IntentReview                 Intent = "review"
	IntentCheckInvoice           Intent = "check_invoice"
	IntentGetInvoice             Intent = "get_invoice"
	IntentCancelOrder            Intent = "cancel_order"
	IntentChangeOrder            Intent = "change_order"
	IntentPlaceOrder             Intent = "place_order"
	IntentTrackOrder             Intent = "track_order"
	IntentCheckPaymentMethods    Intent = "check_payment_methods"
	IntentPaymentIssue           Intent = "payment_issue"
	IntentCheckRefundPolicy      Intent = "check_refund_policy"
	IntentGetRefund              Intent = "get_refund"
	IntentTrackRefund            Intent = "track_refund"
	IntentChangeShippingAddress  Intent = "change_shipping_address"
	IntentSetUpShippingAddress   Intent = "set_up_shipping_address"
	IntentNewsletterSubscription Intent = "newsletter_subscription"
)

var allIntents = []Intent{
	IntentCreateAccount,
	IntentDeleteAccount,
	IntentEditAccount,
	IntentRecoverPassword,
	IntentRegistrationProblems,
	IntentSwitchAccount,
	IntentCheckCancellationFee,
	IntentContactCustomerService,
	IntentContactHumanAgent,
	IntentDeliveryOptions,
	IntentDeliveryPeriod,
	IntentComplaint,
	IntentReview,
	IntentCheckInvoice,
	IntentGetInvoice,
	IntentCancelOrder,
	IntentChangeOrder,
	IntentPlaceOrder,
	IntentTrackOrder,
	IntentCheckPaymentMethods,
	IntentPaymentIssue,
	IntentCheckRefundPolicy,
	IntentGetRefund,
	IntentTrackRefund,
	IntentChangeShippingAddress,
	IntentSetUpShippingAddress,
	IntentNewsletterSubscription,
}

var intentIndex = func() map[Intent]struct{} {
	idx := make(map[Intent]struct{}, len(allIntents))
	for _, in := range allIntents {
		idx[in] = struct{}{}
	}
	return idx
}()

// Intents lists every known intent in declaration order.
func Intents() []Intent {
	out := make([]Intent, len(allIntents))
	copy(out, allIntents)
	return out
}

// Valid reports whether the intent belongs to the closed set.
func (i Intent) Valid() bool {
	_, ok := intentIndex[i]
	return ok
}

func (i Intent) String() string {
	return string(i)
}

// ParseIntent normalizes labels such as "track_refund", "TRACK_REFUND" or
// "Intent.TRACK_REFUND" and rejects anything outside the set.
func ParseIntent(raw string) (Intent, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.LastIndex(s, "."); idx >= 0 {
		s = s[idx+1:]
	}
	in := Intent(strings.ToLower(s))
	if !in.Valid() {
		return "", fmt.Errorf("unknown intent %q", raw)
	}
	return in, nil
}
