package models

import "gorm.io/gorm"

// CreateDefaultPlans seeds the credit packages offered at signup
func CreateDefaultPlans(db *gorm.DB) error {
	defaultPlans := []Plan{
		{
			Name:           "free",
			Description:    "Free starter plan with 5,000 email credits",
			EmailCredits:   5000,
			EmailPrice:     0,
			DailySendLimit: 500,
		},
		{
			Name:           "starter",
			Description:    "Starter plan with 20,000 email credits",
			EmailCredits:   20000,
			EmailPrice:     2000, // $20
			DailySendLimit: 1000,
			DisplayPrice:   "$20",
		},
		{
			Name:           "grow",
			Description:    "Growth plan with 100,000 email credits",
			EmailCredits:   100000,
			EmailPrice:     6000, // $60
			DailySendLimit: 5000,
			DisplayPrice:   "$60",
			IsPopular:      true,
		},
	}
	for _, plan := range defaultPlans {
		if err := db.FirstOrCreate(&plan, "name = ?", plan.Name).Error; err != nil {
			return err
		}
	}
	return nil
}
