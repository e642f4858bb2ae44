package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"facilitybook/pkg/model"
)

const defaultHealthWait = 30 * time.Second

type Metadata struct {
	TotalCount int64
	Limit      int
	Offset     int64
}

// BookingClient calls the bookings API as one user. Token is sent as a
// bearer token on every request.
type BookingClient struct {
	httpClient *HttpClient
	token      string
}

func NewBookingClient(baseUrl, token string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
		token:      token,
	}
}

// As returns a client sharing the connection but acting as another user.
func (c *BookingClient) As(token string) *BookingClient {
	return &BookingClient{httpClient: c.httpClient, token: token}
}

func (c *BookingClient) headers() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *BookingClient) Create(ctx context.Context, req *model.BookingRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", req, c.headers())
}

func (c *BookingClient) CreateRaw(ctx context.Context, rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw(ctx, "/api/v1/bookings", rawBody, c.headers())
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id), c.headers())
}

func (c *BookingClient) Edit(ctx context.Context, id string, req *model.BookingRequest) (*Response, error) {
	return c.httpClient.PATCH(ctx, "/api/v1/bookings/id/"+url.PathEscape(id), req, c.headers())
}

func (c *BookingClient) Cancel(ctx context.Context, id, reason string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", model.ReasonRequest{Reason: reason}, c.headers())
}

func (c *BookingClient) Approvals(ctx context.Context, limit int, offset int64) (*Response, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.FormatInt(offset, 10))
	return c.httpClient.GET(ctx, "/api/v1/approvals?"+query.Encode(), c.headers())
}

func (c *BookingClient) Approve(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/approvals/"+url.PathEscape(id)+"/approve", struct{}{}, c.headers())
}

func (c *BookingClient) Reject(ctx context.Context, id, reason string) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/approvals/"+url.PathEscape(id)+"/reject", model.ReasonRequest{Reason: reason}, c.headers())
}

func (c *BookingClient) Calendar(ctx context.Context, view model.CalendarView, date string) (*Response, error) {
	query := url.Values{}
	if view != "" {
		query.Set("view", string(view))
	}
	if date != "" {
		query.Set("date", date)
	}
	path := "/api/v1/calendar"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.httpClient.GET(ctx, path, c.headers())
}

func (c *BookingClient) Facilities(ctx context.Context) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/facilities", c.headers())
}

func (c *BookingClient) WaitForHealthy(ctx context.Context) error {
	return c.httpClient.WaitForHealthy(ctx, defaultHealthWait)
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var booking model.Booking
	if err := decodeData(resp, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) DecodeCalendar(resp *Response) (*model.Calendar, error) {
	var calendar model.Calendar
	if err := decodeData(resp, &calendar); err != nil {
		return nil, err
	}
	return &calendar, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return bookings, metadata, nil
}

func decodeData(resp *Response, target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper:\n%+v\n%s", resp.ToString(), err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data:\n%+v\n%s", resp.ToString(), err)
	}
	return nil
}
