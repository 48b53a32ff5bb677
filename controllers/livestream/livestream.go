package livestreamController

import (
	"errors"
	"log"

	"github.com/roxas19/DRP/config"
	"github.com/roxas19/DRP/database"
	"github.com/roxas19/DRP/middleware"
	"github.com/roxas19/DRP/models"
	"github.com/roxas19/DRP/notify"
	"github.com/roxas19/DRP/services/livestream"
	"github.com/roxas19/DRP/utils"
	livestreamValidator "github.com/roxas19/DRP/validators/livestream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const oauthStateCookie = "yt_oauth_state"

var (
	// YouTube overrides the API client; nil uses the stored platform token.
	YouTube utils.Broadcaster
	// Publisher receives LIVE/COMPLETED transitions.
	Publisher notify.Publisher
)

func service() *livestream.Service {
	yt := YouTube
	if yt == nil {
		yt = utils.NewYouTubeClient(database.Database.Db, utils.YouTubeOAuthConfig(), "")
	}
	return livestream.New(database.Database.Db, yt, Publisher, config.AppConfig.YouTubePlaylistID)
}

func requireUser(c *fiber.Ctx) (*models.User, error) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return nil, middleware.ErrorResponse(c, err)
	}
	if user == nil {
		return nil, middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return user, nil
}

func youTubeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, utils.ErrYouTubeNotLinked) {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, err.Error(), nil)
	}
	return middleware.ErrorResponse(c, err)
}

// YouTubeAuth starts the OAuth consent flow for the platform channel.
func YouTubeAuth(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{Name: oauthStateCookie, Value: state, HTTPOnly: true, MaxAge: 600})
	url := utils.YouTubeOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return c.Redirect(url, fiber.StatusFound)
}

// YouTubeCallback exchanges the authorization code and stores the token.
func YouTubeCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing authorization code!", nil)
	}
	if state := c.Cookies(oauthStateCookie); state == "" || state != c.Query("state") {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid OAuth state!", nil)
	}

	tok, err := utils.YouTubeOAuthConfig().Exchange(c.UserContext(), code)
	if err != nil {
		log.Printf("[YOUTUBE] Error exchanging code: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to link YouTube account!", nil)
	}
	if err := utils.SaveYouTubeToken(database.Database.Db, tok); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	c.ClearCookie(oauthStateCookie)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "YouTube account linked successfully!", fiber.Map{
		"expires_at": tok.Expiry,
	})
}

func CreateLivestream(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	reqData, ok := c.Locals("validatedLivestream").(*livestreamValidator.CreateLivestreamRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	view, err := service().Create(c.UserContext(), user, livestream.CreateInput{
		Title:          reqData.Title,
		Description:    reqData.Description,
		CourseID:       reqData.CourseID,
		WeeklyModuleID: reqData.WeeklyModuleID,
		ScheduledStart: reqData.ScheduledStartTime,
	})
	if err != nil {
		return youTubeError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Livestream scheduled successfully!", view)
}

func CourseLivestreams(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	courseID, _ := c.Locals("course_id").(uint)
	views, err := service().ListForCourse(c.UserContext(), user, courseID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Livestreams fetched successfully.", views)
}

func LivestreamDetail(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	id, _ := c.Locals("id").(uint)
	view, err := service().Get(c.UserContext(), user, id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Livestream fetched successfully.", view)
}

func StartLivestream(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	id, _ := c.Locals("id").(uint)
	ls, err := service().Start(c.UserContext(), user, id)
	if err != nil {
		return youTubeError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Livestream started successfully!", fiber.Map{
		"livestream_id": ls.ID,
		"status":        ls.Status,
		"rtmp_url":      ls.RTMPURL,
		"stream_key":    ls.StreamKey,
	})
}

func EndLivestream(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if user == nil {
		return err
	}
	id, _ := c.Locals("id").(uint)
	ls, err := service().End(c.UserContext(), user, id)
	if err != nil {
		return youTubeError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Livestream ended successfully!", fiber.Map{
		"livestream_id": ls.ID,
		"status":        ls.Status,
	})
}
