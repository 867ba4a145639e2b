package services

import (
	"errors"
	"fmt"
	"strings"

	config "github.com/anjiri1684/english_practice/configs"
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
	"github.com/anjiri1684/english_practice/notifications"
	"github.com/anjiri1684/english_practice/utils"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func GetOrCreateReferralCode(userID uuid.UUID) (*models.ReferralCode, error) {
	var code models.ReferralCode
	err := database.DB.Where("user_id = ?", userID).First(&code).Error
	if err == nil {
		return &code, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		generated, err := utils.GenerateUniqueReferralCode(tx)
		if err != nil {
			return err
		}
		code = models.ReferralCode{UserID: userID, Code: generated}
		return tx.Create(&code).Error
	})
	if err != nil {
		// Lost a race with a parallel request for the same user.
		var existing models.ReferralCode
		if findErr := database.DB.Where("user_id = ?", userID).First(&existing).Error; findErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &code, nil
}

type MilestoneStatus struct {
	config.Milestone
	Reached bool `json:"reached"`
}

type ReferralStats struct {
	Code          string            `json:"code"`
	Link          string            `json:"link"`
	Uses          int64             `json:"uses"`
	PendingTokens int               `json:"pending_tokens"`
	ClaimedTokens int               `json:"claimed_tokens"`
	Milestones    []MilestoneStatus `json:"milestones"`
}

func GetReferralStats(userID uuid.UUID) (*ReferralStats, error) {
	code, err := GetOrCreateReferralCode(userID)
	if err != nil {
		return nil, err
	}

	var uses int64
	if err := database.DB.Model(&models.ReferralUser{}).Where("referral_code_id = ?", code.ID).Count(&uses).Error; err != nil {
		return nil, err
	}

	var reached []int
	if err := database.DB.Model(&models.ReferralMilestone{}).
		Where("referral_code_id = ?", code.ID).
		Pluck("threshold", &reached).Error; err != nil {
		return nil, err
	}
	reachedSet := make(map[int]bool, len(reached))
	for _, r := range reached {
		reachedSet[r] = true
	}

	milestones := make([]MilestoneStatus, 0, len(config.App.Milestones))
	for _, m := range config.App.Milestones {
		milestones = append(milestones, MilestoneStatus{Milestone: m, Reached: reachedSet[m.Threshold]})
	}

	return &ReferralStats{
		Code:          code.Code,
		Link:          ReferralLink(code.Code),
		Uses:          uses,
		PendingTokens: code.PendingTokens,
		ClaimedTokens: code.ClaimedTokens,
		Milestones:    milestones,
	}, nil
}

func ReferralLink(code string) string {
	return fmt.Sprintf("%s/register?ref=%s", strings.TrimRight(config.App.BaseURL, "/"), code)
}

type ApplyResult struct {
	Bonus      int                `json:"bonus"`
	Milestones []config.Milestone `json:"-"`
}

// ApplyReferralCode links userID to the owner of code. The owner row is locked
// for the duration so milestone counting sees every concurrent use.
// insertReferralUser records the applicant. A concurrent apply by the same
// user loses on the unique user_id index.
func insertReferralUser(tx *gorm.DB, codeID, userID uuid.UUID) error {
	err := tx.Create(&models.ReferralUser{ReferralCodeID: codeID, UserID: userID}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrReferralAlreadyUsed
	}
	return err
}

func ApplyReferralCode(userID uuid.UUID, rawCode string) (*ApplyResult, error) {
	codeStr := strings.ToUpper(strings.TrimSpace(rawCode))
	result := &ApplyResult{Bonus: config.App.ReferralApplyBonus}
	var owner models.User

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var code models.ReferralCode
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", codeStr).First(&code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReferralNotFound
		}
		if err != nil {
			return err
		}
		if code.UserID == userID {
			return ErrReferralOwnCode
		}

		var used int64
		if err := tx.Model(&models.ReferralUser{}).Where("user_id = ?", userID).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return ErrReferralAlreadyUsed
		}

		if err := insertReferralUser(tx, code.ID, userID); err != nil {
			return err
		}
		if err := Credit(tx, userID, config.App.ReferralApplyBonus); err != nil {
			return err
		}

		var uses int64
		if err := tx.Model(&models.ReferralUser{}).Where("referral_code_id = ?", code.ID).Count(&uses).Error; err != nil {
			return err
		}

		reward := config.App.ReferralOwnerReward
		for _, m := range config.App.Milestones {
			if int64(m.Threshold) > uses {
				break
			}
			var exists int64
			if err := tx.Model(&models.ReferralMilestone{}).
				Where("referral_code_id = ? AND threshold = ?", code.ID, m.Threshold).
				Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				continue
			}
			if err := tx.Create(&models.ReferralMilestone{ReferralCodeID: code.ID, Threshold: m.Threshold, Tokens: m.Tokens}).Error; err != nil {
				return err
			}
			reward += m.Tokens
			result.Milestones = append(result.Milestones, m)
		}

		if reward > 0 {
			if err := tx.Model(&models.ReferralCode{}).Where("id = ?", code.ID).
				Update("pending_tokens", gorm.Expr("pending_tokens + ?", reward)).Error; err != nil {
				return err
			}
		}

		return tx.First(&owner, "id = ?", code.UserID).Error
	})
	if err != nil {
		return nil, err
	}

	for _, m := range result.Milestones {
		log.WithFields(log.Fields{"owner_id": owner.ID, "threshold": m.Threshold}).Info("Referral milestone reached")
		subject, body := notifications.ReferralMilestoneEmail(m.Threshold, m.Tokens)
		go notifications.SendEmail(owner.Name, owner.Email, subject, body)
	}
	return result, nil
}

// ClaimReferralTokens moves the pending referral tokens into the owner's balance.
func ClaimReferralTokens(userID uuid.UUID) (int, error) {
	var claimed int
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var code models.ReferralCode
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNothingToClaim
		}
		if err != nil {
			return err
		}
		if code.PendingTokens <= 0 {
			return ErrNothingToClaim
		}

		claimed = code.PendingTokens
		if err := Credit(tx, userID, claimed); err != nil {
			return err
		}
		return tx.Model(&models.ReferralCode{}).Where("id = ?", code.ID).Updates(map[string]interface{}{
			"pending_tokens": 0,
			"claimed_tokens": gorm.Expr("claimed_tokens + ?", claimed),
		}).Error
	})
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"user_id": userID, "tokens": claimed}).Info("Referral tokens claimed")
	return claimed, nil
}
