package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"emailsuite/analytics"
	"emailsuite/models"
	"emailsuite/utils"
)

// GetCampaignAnalytics recomputes the campaign rollup from the stored event
// set. Nothing here is cached or persisted.
func (cc *CampaignController) GetCampaignAnalytics(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	report, err := cc.Analytics.CampaignReport(c.Context(), campaign.ID)
	if err != nil {
		if errors.Is(err, analytics.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Campaign not found",
			})
		}
		cc.Logger.Printf("Campaign %d analytics failed: %v", campaign.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute campaign analytics",
		})
	}

	return c.JSON(utils.SuccessResponse(report))
}
