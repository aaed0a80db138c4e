package model

import "github.com/to404hanga/submission_controller/service/leaderboard"

type GetLeaderboardResponse struct {
	AssignmentID string              `json:"assignment_id"`
	List         []leaderboard.Entry `json:"list"`
}
