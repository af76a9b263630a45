package controller

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"emailsuite/config"
	"emailsuite/models"
	"emailsuite/utils"
)

func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

type PaymentRequest struct {
	PlanID uint `json:"plan_id" validate:"required"`
}

// ListPlans returns the purchasable credit packages
func ListPlans(c *fiber.Ctx) error {
	var plans []models.Plan
	if err := config.DB.Order("email_price").Find(&plans).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch plans", err)
	}

	for i := range plans {
		plans[i].DisplayPrice = "$" + strconv.Itoa(plans[i].EmailPrice/100)
	}

	return c.JSON(utils.SuccessResponse(plans))
}

// CreatePaymentIntent creates a Stripe Payment Intent for a plan purchase
func CreatePaymentIntent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Plan ID is required",
		})
	}

	var plan models.Plan
	if err := config.DB.First(&plan, req.PlanID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	customerID, err := getOrCreateStripeCustomer(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process payment",
		})
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(plan.EmailPrice)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Customer: stripe.String(customerID),
		Metadata: map[string]string{
			"user_id": strconv.Itoa(int(user.ID)),
			"plan_id": strconv.Itoa(int(plan.ID)),
		},
		Description: stripe.String("Purchase of " + plan.Name + " plan"),
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process payment",
		})
	}

	transaction := models.CreditTransaction{
		UserID:                user.ID,
		PlanID:                &plan.ID,
		EmailCredits:          plan.EmailCredits,
		Amount:                plan.EmailPrice,
		Currency:              "usd",
		PaymentStatus:         "pending",
		StripePaymentIntentID: pi.ID,
		Description:           "Purchase of " + plan.Name + " plan",
	}

	if err := config.DB.Create(&transaction).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process transaction",
		})
	}

	return c.JSON(fiber.Map{
		"clientSecret":   pi.ClientSecret,
		"transaction_id": transaction.ID,
		"amount":         plan.EmailPrice,
		"currency":       "usd",
	})
}

// GetTransactions lists the user's credit transactions
func GetTransactions(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var transactions []models.CreditTransaction
	if err := config.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&transactions).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch transactions", err)
	}

	return c.JSON(utils.SuccessResponse(transactions))
}

// HandlePaymentWebhook handles Stripe webhook events
func HandlePaymentWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing payment intent",
			})
		}
		return handlePaymentIntentSucceeded(c, &paymentIntent)

	case "payment_intent.payment_failed":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing payment intent",
			})
		}
		return handlePaymentIntentFailed(c, &paymentIntent)

	default:
		return c.SendStatus(fiber.StatusOK)
	}
}

// handlePaymentIntentSucceeded credits the user once Stripe confirms payment
func handlePaymentIntentSucceeded(c *fiber.Ctx, pi *stripe.PaymentIntent) error {
	var transaction models.CreditTransaction
	if err := config.DB.Where("stripe_payment_intent_id = ?", pi.ID).First(&transaction).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}

	// Webhooks can be retried; never credit twice
	if transaction.PaymentStatus == "completed" {
		return c.SendStatus(fiber.StatusOK)
	}

	transaction.PaymentStatus = "completed"
	if pi.LatestCharge != nil {
		if ch, err := charge.Get(pi.LatestCharge.ID, nil); err == nil {
			transaction.ReceiptURL = ch.ReceiptURL
		}
	}

	if err := config.DB.Save(&transaction).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update transaction",
		})
	}

	var user models.User
	if err := config.DB.First(&user, transaction.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	user.EmailCredits += transaction.EmailCredits
	if transaction.PlanID != nil {
		var plan models.Plan
		if err := config.DB.First(&plan, *transaction.PlanID).Error; err == nil {
			user.PlanID = transaction.PlanID
			user.PlanName = plan.Name
		}
	}

	if err := config.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user credits",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// handlePaymentIntentFailed records the failure reason
func handlePaymentIntentFailed(c *fiber.Ctx, pi *stripe.PaymentIntent) error {
	var transaction models.CreditTransaction
	if err := config.DB.Where("stripe_payment_intent_id = ?", pi.ID).First(&transaction).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transaction not found",
		})
	}

	transaction.PaymentStatus = "failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		transaction.Description = "Payment failed: " + pi.LastPaymentError.Msg
	}

	if err := config.DB.Save(&transaction).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update transaction",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// getOrCreateStripeCustomer gets or creates a Stripe customer
func getOrCreateStripeCustomer(user *models.User) (string, error) {
	if user.StripeCustomerID != nil {
		return *user.StripeCustomerID, nil
	}

	var name string
	if user.Name != nil {
		name = *user.Name
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(name),
		Metadata: map[string]string{
			"user_id": strconv.Itoa(int(user.ID)),
		},
	}

	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	user.StripeCustomerID = &cust.ID
	if err := config.DB.Save(user).Error; err != nil {
		return "", err
	}

	return cust.ID, nil
}
