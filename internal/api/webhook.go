package api

import (
	"encoding/json" // Event payload decoding
	"errors"        // Sentinel error checks
	"io"            // Body reading
	"net/http"      // HTTP status codes

	"brainycode/internal/billing" // Billing service

	"github.com/gin-gonic/gin"                 // Gin web framework
	"github.com/sirupsen/logrus"               // Logging library
	"github.com/stripe/stripe-go/v82"          // Stripe SDK
	"github.com/stripe/stripe-go/v82/webhook"  // Webhook signature verification
)

// StripeWebhookHandler verifies and reconciles payment-outcome events.
// Verified events are always acknowledged so Stripe stops redelivering;
// reconciliation failures are logged with the payment reference so they
// can be replayed by hand.
func StripeWebhookHandler(svc *billing.Service, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const maxBodyBytes = int64(65536) // Stripe events are small
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			// If reading fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}
		// Verify the signature before trusting anything in the body
		event, err := webhook.ConstructEventWithOptions(
			body,
			c.GetHeader("Stripe-Signature"),
			webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
		)
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("Stripe webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
			return
		}
		switch event.Type {
		case "payment_intent.succeeded":
			var intent stripe.PaymentIntent // Decode the payment intent
			if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment intent payload"})
				return
			}
			ev, err := billing.ParsePaymentMetadata(intent.ID, intent.Metadata)
			if err != nil {
				// Malformed metadata cannot be reconciled; ACK and log
				logReconcileFailure(intent.ID, string(event.Type), err)
				break
			}
			// Route on the checkout type the session carried
			if ev.CheckoutType == billing.CheckoutBuyCredits {
				err = svc.PurchaseSucceeded(c.Request.Context(), ev)
			} else {
				_, err = svc.CustomOrderSucceeded(c.Request.Context(), ev)
			}
			// A replayed delivery is a clean no-op, everything else is a
			// reconciliation failure worth replaying
			if err != nil && !errors.Is(err, billing.ErrAlreadyProcessed) {
				logReconcileFailure(intent.ID, string(event.Type), err)
			}
		case "payment_intent.payment_failed":
			var intent stripe.PaymentIntent // Decode the payment intent
			if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment intent payload"})
				return
			}
			ev, err := billing.ParsePaymentMetadata(intent.ID, intent.Metadata)
			if err != nil {
				logReconcileFailure(intent.ID, string(event.Type), err)
				break
			}
			if err := svc.PurchaseFailed(c.Request.Context(), ev); err != nil && !errors.Is(err, billing.ErrAlreadyProcessed) {
				logReconcileFailure(intent.ID, string(event.Type), err)
			}
		default:
			// Ignore event types we do not consume
			logrus.WithField("type", event.Type).Debug("Unhandled Stripe event type")
		}
		// Acknowledge receipt so the processor stops redelivering
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// logReconcileFailure records a verified event that could not be applied
// to the ledger, keyed by the payment reference for manual replay
func logReconcileFailure(stripeID, eventType string, err error) {
	logrus.WithFields(logrus.Fields{
		"stripe_id": stripeID,    // External payment reference
		"event":     eventType,   // Stripe event type
		"error":     err.Error(), // Reconciliation failure
	}).Error("Webhook reconciliation failed; event acknowledged, replay required")
}
