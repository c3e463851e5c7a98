package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"civichub/internal/config"
	"civichub/internal/models"
	"civichub/internal/testutil"
	"civichub/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func TestIndex_ShowsFiveMostRecent(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author", models.RoleUser)
	for i := 0; i < 7; i++ {
		testutil.CreateIssue(t, env.db, author, fmt.Sprintf("Neighbourhood issue %02d", i), 2, baseTime.Add(time.Duration(i)*time.Hour))
	}

	for _, path := range []string{"/", "/index"} {
		resp := env.get(t, path)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)

		for i := 2; i < 7; i++ {
			assert.Contains(t, body, fmt.Sprintf("Neighbourhood issue %02d", i))
		}
		assert.NotContains(t, body, "Neighbourhood issue 00")
		assert.NotContains(t, body, "Neighbourhood issue 01")
		assert.Less(t, strings.Index(body, "Neighbourhood issue 06"), strings.Index(body, "Neighbourhood issue 05"))
	}
}

func TestIssues_ListsAllNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author", models.RoleUser)
	for i := 0; i < 7; i++ {
		testutil.CreateIssue(t, env.db, author, fmt.Sprintf("Neighbourhood issue %02d", i), 2, baseTime.Add(time.Duration(i)*time.Hour))
	}

	resp := env.get(t, "/issues")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)

	for i := 0; i < 7; i++ {
		assert.Contains(t, body, fmt.Sprintf("Neighbourhood issue %02d", i))
	}
	assert.Less(t, strings.Index(body, "Neighbourhood issue 01"), strings.Index(body, "Neighbourhood issue 00"))
}

func TestStaticPages(t *testing.T) {
	env := newTestEnv(t)

	pages := []struct {
		path string
		want string
	}{
		{"/about", "About CivicHub"},
		{"/contact", "Contact"},
		{"/signup", "Join Today"},
		{"/login", "Log In"},
		{"/static/css/site.css", "--accent"},
	}
	for _, p := range pages {
		resp := env.get(t, p.path)
		require.Equal(t, http.StatusOK, resp.StatusCode, p.path)
		assert.Contains(t, readBody(t, resp), p.want, p.path)
	}
}

func TestUnknownRoute_NotFoundPage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "404")
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{
		"username":         {"newcomer"},
		"email":            {"newcomer@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	}

	resp := env.postForm(t, "/signup", form)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	requireFlash(t, resp, flashSuccess, "Your account has been created! You are now able to log in")

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "newcomer").First(&user).Error)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.True(t, user.CheckPassword("secret1"))

	// same username and email again
	resp = env.postForm(t, "/signup", form)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, validation.UsernameTakenMessage)
	assert.Contains(t, body, validation.EmailTakenMessage)

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSignup_FieldErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/signup", url.Values{
		"username":         {"x"},
		"email":            {"nope"},
		"password":         {"abc"},
		"confirm_password": {"abd"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Field must be between 2 and 20 characters long.")
	assert.Contains(t, body, "Invalid email address.")
	assert.Contains(t, body, "Field must be at least 6 characters long.")

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestPostIssue(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	cookie := env.loginCookie(t, alice)

	page := env.get(t, "/post_issue", cookie)
	require.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, readBody(t, page), "Rural Tech Access")

	resp := env.postForm(t, "/post_issue", url.Values{
		"title":       {"Broken street lights"},
		"description": {"Three lamps on Main Street are out."},
		"category":    {"Technology"},
		"total_slots": {"4"},
		"mode":        {"Offline"},
	}, cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	requireFlash(t, resp, flashSuccess, "Your issue has been posted!")

	var issue models.Issue
	require.NoError(t, env.db.First(&issue).Error)
	assert.Equal(t, fmt.Sprintf("/issue/%d", issue.ID), resp.Header.Get("Location"))
	assert.Equal(t, alice.ID, issue.AuthorID)
	assert.Equal(t, 4, issue.TotalSlots)

	flash := responseCookie(resp, flashCookie)
	require.NotNil(t, flash)
	detail := env.get(t, resp.Header.Get("Location"), cookie, flashCookie+"="+flash.Value)
	require.Equal(t, http.StatusOK, detail.StatusCode)
	body := readBody(t, detail)
	assert.Contains(t, body, "Broken street lights")
	assert.Contains(t, body, "Rural Tech Access")
	assert.Contains(t, body, "Your issue has been posted!")
}

func TestPostIssue_Invalid(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)

	resp := env.postForm(t, "/post_issue", url.Values{
		"title":       {"Pot"},
		"description": {""},
		"category":    {"Sports"},
		"total_slots": {"0"},
		"mode":        {"Offline"},
	}, env.loginCookie(t, alice))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Field must be between 5 and 100 characters long.")
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Not a valid choice.")
	assert.Contains(t, body, "Number must be at least 1.")

	var count int64
	env.db.Model(&models.Issue{}).Count(&count)
	assert.Zero(t, count)
}

func TestIssueDetail(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author", models.RoleUser)
	bob := testutil.CreateUser(t, env.db, "bob", models.RoleUser)
	issue := testutil.CreateIssue(t, env.db, author, "Flooded underpass", 3, baseTime)
	testutil.CreateBooking(t, env.db, bob, issue)
	testutil.CreateComment(t, env.db, bob, issue, "second comment", baseTime.Add(2*time.Hour))
	testutil.CreateComment(t, env.db, author, issue, "first comment", baseTime.Add(time.Hour))

	resp := env.get(t, fmt.Sprintf("/issue/%d", issue.ID), env.loginCookie(t, bob))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)

	assert.Contains(t, body, "<strong>2</strong> of 3 slots remaining")
	assert.Contains(t, body, "You have booked a slot for this event.")
	assert.NotContains(t, body, "confirm-delete")
	assert.Less(t, strings.Index(body, "first comment"), strings.Index(body, "second comment"))

	// the author sees the delete button
	resp = env.get(t, fmt.Sprintf("/issue/%d", issue.ID), env.loginCookie(t, author))
	assert.Contains(t, readBody(t, resp), "confirm-delete")
}

func TestIssueDetail_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/issue/999", "/issue/abc"} {
		resp := env.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestPostComment(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author", models.RoleUser)
	issue := testutil.CreateIssue(t, env.db, author, "Flooded underpass", 3, baseTime)
	path := fmt.Sprintf("/issue/%d", issue.ID)
	cookie := env.loginCookie(t, author)

	t.Run("anonymous", func(t *testing.T) {
		resp := env.postForm(t, path, url.Values{"content": {"hello"}})
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
		requireFlash(t, resp, flashInfo, "You must be logged in to comment.")
	})

	t.Run("anonymous empty", func(t *testing.T) {
		resp := env.postForm(t, path, url.Values{"content": {"  "}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "This field is required.")
		assert.Empty(t, flashesOf(resp))
	})

	t.Run("anonymous missing issue", func(t *testing.T) {
		resp := env.postForm(t, "/issue/999", url.Values{"content": {""}})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("empty", func(t *testing.T) {
		resp := env.postForm(t, path, url.Values{"content": {"   "}}, cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "This field is required.")
	})

	t.Run("missing issue", func(t *testing.T) {
		resp := env.postForm(t, "/issue/999", url.Values{"content": {"hello"}}, cookie)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	var count int64
	env.db.Model(&models.Comment{}).Count(&count)
	require.Zero(t, count)

	t.Run("published", func(t *testing.T) {
		resp := env.postForm(t, path, url.Values{"content": {"I can help on Saturday"}}, cookie)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, path, resp.Header.Get("Location"))
		requireFlash(t, resp, flashSuccess, "Your comment has been published.")

		var comment models.Comment
		require.NoError(t, env.db.First(&comment).Error)
		assert.Equal(t, "I can help on Saturday", comment.Content)
		assert.Equal(t, author.ID, comment.AuthorID)
	})

	t.Run("markup kept and escaped", func(t *testing.T) {
		typed := "Bring <gloves> & bags\nMeet at gate 2"
		resp := env.postForm(t, path, url.Values{"content": {typed}}, cookie)
		require.Equal(t, http.StatusFound, resp.StatusCode)

		var comment models.Comment
		require.NoError(t, env.db.Order("id desc").First(&comment).Error)
		assert.Equal(t, typed, comment.Content)

		body := readBody(t, env.get(t, path, cookie))
		assert.Contains(t, body, "Bring &lt;gloves&gt; &amp; bags<br>\nMeet at gate 2")
		assert.NotContains(t, body, "<gloves>")
	})
}

func TestBookSlot(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author", models.RoleUser)
	issue := testutil.CreateIssue(t, env.db, author, "Park clean-up", 2, baseTime)
	path := fmt.Sprintf("/book_slot/%d", issue.ID)
	detail := fmt.Sprintf("/issue/%d", issue.ID)

	a := testutil.CreateUser(t, env.db, "volunteer_a", models.RoleUser)
	b := testutil.CreateUser(t, env.db, "volunteer_b", models.RoleUser)
	c := testutil.CreateUser(t, env.db, "volunteer_c", models.RoleUser)

	steps := []struct {
		user     *models.User
		category string
		message  string
	}{
		{a, flashSuccess, "Your slot has been successfully booked!"},
		{a, flashInfo, "You have already booked a slot for this event."},
		{b, flashSuccess, "Your slot has been successfully booked!"},
		{c, flashDanger, "Sorry, all slots for this event are booked."},
	}

	for _, step := range steps {
		resp := env.postForm(t, path, url.Values{}, env.loginCookie(t, step.user))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, detail, resp.Header.Get("Location"))
		requireFlash(t, resp, step.category, step.message)
	}

	var count int64
	env.db.Model(&models.Booking{}).Where("issue_id = ?", issue.ID).Count(&count)
	assert.Equal(t, int64(2), count)

	resp := env.postForm(t, "/book_slot/999", url.Values{}, env.loginCookie(t, a))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBookSlot_Strict(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.BookingStrict = true })
	author := testutil.CreateUser(t, env.db, "author", models.RoleUser)
	issue := testutil.CreateIssue(t, env.db, author, "Park clean-up", 1, baseTime)
	path := fmt.Sprintf("/book_slot/%d", issue.ID)

	a := testutil.CreateUser(t, env.db, "volunteer_a", models.RoleUser)
	b := testutil.CreateUser(t, env.db, "volunteer_b", models.RoleUser)

	requireFlash(t, env.postForm(t, path, url.Values{}, env.loginCookie(t, a)), flashSuccess, "Your slot has been successfully booked!")
	requireFlash(t, env.postForm(t, path, url.Values{}, env.loginCookie(t, a)), flashInfo, "You have already booked a slot for this event.")
	requireFlash(t, env.postForm(t, path, url.Values{}, env.loginCookie(t, b)), flashDanger, "Sorry, all slots for this event are booked.")
}

func TestDeleteIssue(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "author", models.RoleUser)
	other := testutil.CreateUser(t, env.db, "other", models.RoleUser)
	issue := testutil.CreateIssue(t, env.db, author, "Graffiti on the library", 2, baseTime)
	testutil.CreateBooking(t, env.db, other, issue)
	testutil.CreateComment(t, env.db, other, issue, "I have paint", baseTime)
	path := fmt.Sprintf("/issue/%d/delete", issue.ID)

	resp := env.postForm(t, path, url.Values{}, env.loginCookie(t, other))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	env.db.Model(&models.Issue{}).Count(&count)
	require.Equal(t, int64(1), count)

	resp = env.postForm(t, path, url.Values{}, env.loginCookie(t, author))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/issues", resp.Header.Get("Location"))
	requireFlash(t, resp, flashSuccess, "Your post has been deleted!")

	for _, model := range []any{&models.Issue{}, &models.Comment{}, &models.Booking{}} {
		env.db.Model(model).Count(&count)
		assert.Zero(t, count)
	}

	resp = env.postForm(t, path, url.Values{}, env.loginCookie(t, author))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	testutil.CreateIssue(t, env.db, alice, "Alice's first issue", 1, baseTime)
	cookie := env.loginCookie(t, alice)

	resp := env.get(t, "/profile/alice", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "alice@example.com")
	assert.Contains(t, body, "first issue")

	resp = env.get(t, "/profile/ghost", cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminPanel(t *testing.T) {
	env := newTestEnv(t)
	root := testutil.CreateUser(t, env.db, "root", models.RoleAdmin)
	bob := testutil.CreateUser(t, env.db, "bob", models.RoleUser)
	testutil.CreateIssue(t, env.db, bob, "Potholes everywhere", 1, baseTime)

	resp := env.get(t, "/admin", env.loginCookie(t, root))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `<span class="value">2</span> users`)
	assert.Contains(t, body, `<span class="value">1</span> issues`)
	assert.Contains(t, body, "bob@example.com")
	assert.Contains(t, body, "root@example.com")
}

func TestFlash_ShownOnceOnNextPage(t *testing.T) {
	env := newTestEnv(t)
	raw := encodeFlashes([]Flash{{Category: flashSuccess, Message: "Welcome back"}})

	resp := env.get(t, "/about", flashCookie+"="+raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `<div class="alert alert-success" role="alert">Welcome back</div>`)

	cleared := responseCookie(resp, flashCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.CSRFEnabled = true })

	page := env.get(t, "/login")
	require.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, readBody(t, page), `name="_csrf"`)

	resp := env.postForm(t, "/login", url.Values{"email": {"a@example.com"}, "password": {"x"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCSRF_TokenSharedAcrossInstances(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.CSRFEnabled = true })

	page := env.get(t, "/login")
	require.Equal(t, http.StatusOK, page.StatusCode)
	token := responseCookie(page, "csrf_")
	require.NotNil(t, token)
	assert.NotEmpty(t, env.redis.Keys())

	// a second instance over the same database and Redis, as behind a load balancer
	other, err := NewServerWithDeps(env.server.config, env.db, env.server.redis)
	require.NoError(t, err)
	otherApp, err := other.NewApp()
	require.NoError(t, err)
	otherEnv := &testEnv{server: other, app: otherApp, db: env.db, redis: env.redis}

	form := url.Values{"email": {"nobody@example.com"}, "password": {"x"}, "_csrf": {token.Value}}
	resp := otherEnv.postForm(t, "/login", form, "csrf_="+token.Value)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Login Unsuccessful")
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/health/ready")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "healthy", payload.Status)
	assert.Equal(t, "healthy", payload.Checks["database"])
	assert.Equal(t, "healthy", payload.Checks["redis"])
}
