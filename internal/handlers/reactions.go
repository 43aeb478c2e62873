package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/nashfy/pitstop/internal/models"
	"github.com/nashfy/pitstop/internal/websocket"
)

const (
	defaultReactionLimit = 50
	maxReactionLimit     = 200
)

var errNotApprovedMember = fiber.NewError(fiber.StatusForbidden, "Only approved club members can post reactions")

// ReactionBroadcaster pushes a committed reaction to the watchers of its race.
type ReactionBroadcaster interface {
	BroadcastJSON(race string, v any) error
}

// CreateRaceReactionRequest is the body of POST /api/race-reactions.
type CreateRaceReactionRequest struct {
	MemberEmail  string  `json:"member_email"`
	RaceYear     int     `json:"race_year"`
	RaceRound    int     `json:"race_round"`
	RaceName     *string `json:"race_name"`
	Comment      *string `json:"comment"`
	ReactionType *string `json:"reaction_type"`
}

// ReactionResponse is a reaction as shown publicly: the author's name, never their email.
type ReactionResponse struct {
	ID           string  `json:"id"`
	MemberName   string  `json:"member_name"`
	MemberCity   *string `json:"member_city"`
	RaceYear     int     `json:"race_year"`
	RaceRound    int     `json:"race_round"`
	RaceName     *string `json:"race_name"`
	Comment      *string `json:"comment"`
	ReactionType string  `json:"reaction_type"`
	CreatedAt    string  `json:"created_at"`
}

func toReactionResponse(r models.RaceReaction) ReactionResponse {
	resp := ReactionResponse{
		ID:           r.ID.String(),
		RaceYear:     r.RaceYear,
		RaceRound:    r.RaceRound,
		RaceName:     r.RaceName,
		Comment:      r.Comment,
		ReactionType: r.ReactionType,
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.Member != nil {
		resp.MemberName = r.Member.Name
		resp.MemberCity = r.Member.City
	}
	return resp
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// CreateRaceReaction handles POST /api/race-reactions. The member's status is checked
// inside the same transaction as the insert, so a member rejected a moment earlier
// cannot slip a reaction in.
func CreateRaceReaction(db *gorm.DB, hub ReactionBroadcaster) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateRaceReactionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		email, ok := normalizeEmail(req.MemberEmail)
		if !ok {
			return invalid("member_email")
		}
		if req.RaceYear < 1950 {
			return invalid("race_year")
		}
		if req.RaceRound < 1 {
			return invalid("race_round")
		}

		reaction := models.RaceReaction{
			RaceYear:     req.RaceYear,
			RaceRound:    req.RaceRound,
			RaceName:     trimmedOrNil(req.RaceName),
			Comment:      trimmedOrNil(req.Comment),
			ReactionType: models.ReactionComment,
		}
		if t := trimmedOrNil(req.ReactionType); t != nil {
			reaction.ReactionType = strings.ToLower(*t)
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var member models.ClubMember
			if err := tx.Where("email = ?", email).First(&member).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errNotApprovedMember
				}
				return err
			}
			if !member.CanReact() {
				return errNotApprovedMember
			}

			reaction.MemberID = member.ID
			if err := tx.Omit("Member").Create(&reaction).Error; err != nil {
				return err
			}
			reaction.Member = &member
			return nil
		})
		if errors.Is(err, errNotApprovedMember) {
			return errNotApprovedMember
		}
		if err != nil {
			return failedTo("create race reaction", err)
		}

		resp := toReactionResponse(reaction)
		if hub != nil {
			race := websocket.RaceKey(reaction.RaceYear, reaction.RaceRound)
			if err := hub.BroadcastJSON(race, fiber.Map{"type": "reaction", "reaction": resp}); err != nil {
				log.Printf("broadcast reaction %s: %v", resp.ID, err)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":  true,
			"reaction": resp,
		})
	}
}

// ListRaceReactions handles GET /api/race-reactions?race_year=&race_round=&limit=,
// newest first.
func ListRaceReactions(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := queryInt(c, "race_year", 0)
		if err != nil {
			return err
		}
		round, err := queryInt(c, "race_round", 0)
		if err != nil {
			return err
		}
		limit, err := queryInt(c, "limit", defaultReactionLimit)
		if err != nil {
			return err
		}
		if limit < 1 || limit > maxReactionLimit {
			return invalid("limit")
		}

		query := db.Preload("Member").Order("created_at DESC").Limit(limit)
		if year > 0 {
			query = query.Where("race_year = ?", year)
		}
		if round > 0 {
			query = query.Where("race_round = ?", round)
		}

		var reactions []models.RaceReaction
		if err := query.Find(&reactions).Error; err != nil {
			return failedTo("list race reactions", err)
		}

		out := make([]ReactionResponse, 0, len(reactions))
		for _, r := range reactions {
			out = append(out, toReactionResponse(r))
		}
		return c.JSON(fiber.Map{
			"success":   true,
			"reactions": out,
			"count":     len(out),
		})
	}
}
