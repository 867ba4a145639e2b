package services

import (
	"github.com/anjiri1684/english_practice/database"
	"github.com/anjiri1684/english_practice/models"
)

type AdminStats struct {
	Users                int64                        `json:"users"`
	SessionsByKind       map[models.SessionKind]int64 `json:"sessions_by_kind"`
	TransactionsByStatus map[string]int64             `json:"transactions_by_status"`
	TokensSold           int64                        `json:"tokens_sold"`
	Revenue              int64                        `json:"revenue"`
	Essays               int64                        `json:"essays"`
}

func Stats() (*AdminStats, error) {
	stats := AdminStats{
		SessionsByKind:       map[models.SessionKind]int64{},
		TransactionsByStatus: map[string]int64{},
	}

	if err := database.DB.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Model(&models.Essay{}).Count(&stats.Essays).Error; err != nil {
		return nil, err
	}

	var kinds []struct {
		Kind  models.SessionKind
		Count int64
	}
	if err := database.DB.Model(&models.Session{}).
		Select("kind, count(*) as count").
		Group("kind").
		Scan(&kinds).Error; err != nil {
		return nil, err
	}
	for kind := range Kinds {
		stats.SessionsByKind[kind] = 0
	}
	for _, k := range kinds {
		stats.SessionsByKind[k.Kind] = k.Count
	}

	var statuses []struct {
		Status string
		Count  int64
	}
	if err := database.DB.Model(&models.Transaction{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statuses).Error; err != nil {
		return nil, err
	}
	for _, s := range []string{models.TransactionPending, models.TransactionSuccess, models.TransactionFailed} {
		stats.TransactionsByStatus[s] = 0
	}
	for _, s := range statuses {
		stats.TransactionsByStatus[s.Status] = s.Count
	}

	var sold struct {
		Tokens  int64
		Revenue int64
	}
	if err := database.DB.Model(&models.Transaction{}).
		Select("COALESCE(SUM(tokens), 0) as tokens, COALESCE(SUM(amount), 0) as revenue").
		Where("status = ?", models.TransactionSuccess).
		Scan(&sold).Error; err != nil {
		return nil, err
	}
	stats.TokensSold = sold.Tokens
	stats.Revenue = sold.Revenue
	return &stats, nil
}
