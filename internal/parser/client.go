package parser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"telegram-schedule-bot/internal/models"
)

// Source is the network side the client reads pages from.
type Source interface {
	Get(ctx context.Context, url string) ([]byte, error)
	PostForm(ctx context.Context, url string, form map[string]string) ([]byte, error)
}

type ClientOptions struct {
	SiteURL             string
	SchedulePath        string
	TeacherSearchPath   string
	TeacherSchedulePath string
}

// Client fetches pages of the schedule site and extracts their content.
type Client struct {
	src                 Source
	site                *url.URL
	schedulePath        string
	teacherSearchPath   string
	teacherSchedulePath string
}

func NewClient(src Source, opts ClientOptions) (*Client, error) {
	site, err := url.Parse(opts.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}
	if site.Scheme == "" || site.Host == "" {
		return nil, fmt.Errorf("site url %q is not absolute", opts.SiteURL)
	}
	return &Client{
		src:                 src,
		site:                site,
		schedulePath:        opts.SchedulePath,
		teacherSearchPath:   opts.TeacherSearchPath,
		teacherSchedulePath: opts.TeacherSchedulePath,
	}, nil
}

func (c *Client) resolve(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", link, err)
	}
	return c.site.ResolveReference(ref).String(), nil
}

func (c *Client) get(ctx context.Context, link string) ([]byte, error) {
	u, err := c.resolve(link)
	if err != nil {
		return nil, err
	}
	return c.src.Get(ctx, u)
}

// ListFaculties returns faculty name -> faculty page link.
func (c *Client) ListFaculties(ctx context.Context) (models.Options, error) {
	page, err := c.get(ctx, c.schedulePath)
	if err != nil {
		return nil, err
	}
	return ParsePlaces(page)
}

// ListGroups returns group name -> group schedule link for a faculty page.
func (c *Client) ListGroups(ctx context.Context, facultyLink string) (models.Options, error) {
	page, err := c.get(ctx, facultyLink)
	if err != nil {
		return nil, err
	}
	return ParseGroups(page)
}

// ListTeachers runs the site's teacher search and returns
// teacher name -> teacher schedule link, in the order the site answered.
func (c *Client) ListTeachers(ctx context.Context, query string) (models.Options, error) {
	u, err := c.resolve(c.teacherSearchPath)
	if err != nil {
		return nil, err
	}
	raw, err := c.src.PostForm(ctx, u, map[string]string{"js": "1", "search": query})
	if err != nil {
		return nil, err
	}
	teachers, err := ParseTeachers(raw)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(c.teacherSchedulePath, "/") + "/"
	opts := models.Options{}
	for _, t := range teachers {
		opts.Put(t.FIO, base+url.PathEscape(t.ID))
	}
	return opts, nil
}

// FetchWeekSchedule loads and parses the schedule page behind link.
func (c *Client) FetchWeekSchedule(ctx context.Context, link string) (models.WeekSchedule, error) {
	page, err := c.get(ctx, link)
	if err != nil {
		return nil, err
	}
	return ParseWeekSchedule(page)
}
