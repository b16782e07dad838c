package overlay

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
	<Document>
		<name>Trail network</name>
		<Placemark>
			<name>Spring</name>
			<Point>
				<coordinates>35.2137,31.7683,795</coordinates>
			</Point>
		</Placemark>
		<Folder>
			<name>Marked trails</name>
			<Placemark>
				<name>Red trail</name>
				<LineString>
					<coordinates>
						35.2100,31.7600,780
						35.2120,31.7620,790
						35.2140,31.7650,810
					</coordinates>
				</LineString>
			</Placemark>
			<Folder>
				<name>Nested</name>
				<Placemark>
					<name>Combined</name>
					<MultiGeometry>
						<LineString>
							<coordinates>35.2200,31.7700 35.2210,31.7710</coordinates>
						</LineString>
						<Point>
							<coordinates>35.2205,31.7705</coordinates>
						</Point>
					</MultiGeometry>
				</Placemark>
			</Folder>
		</Folder>
		<Placemark>
			<name>Broken</name>
			<LineString>
				<coordinates>not,numbers garbage</coordinates>
			</LineString>
		</Placemark>
	</Document>
</kml>`

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestFetchNetwork_ParsesTrailsAndWaypoints(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, sampleKML), nil).Once()

	client := NewClientWithHTTPDoer(nil, mockHTTP, DefaultTTL)

	network, err := client.FetchNetwork(context.Background(), "https://feeds.example.com/trails.kml")

	require.NoError(t, err)
	require.Len(t, network.Trails, 2)
	require.Len(t, network.Waypoints, 2)

	red := network.Trails[0]
	require.Len(t, red, 3)
	assert.Equal(t, 31.7600, red[0].Lat)
	assert.Equal(t, 35.2100, red[0].Lng)
	assert.Equal(t, 780.0, red[0].Alt)

	spring := network.Waypoints[0]
	assert.Equal(t, 31.7683, spring.Lat)
	assert.Equal(t, 795.0, spring.Alt)

	mockHTTP.AssertExpectations(t)
}

func TestFetchNetwork_CachesPerURL(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, sampleKML), nil).Once()

	client := NewClientWithHTTPDoer(nil, mockHTTP, DefaultTTL)

	first, err := client.FetchNetwork(context.Background(), "https://feeds.example.com/trails.kml")
	require.NoError(t, err)
	second, err := client.FetchNetwork(context.Background(), "https://feeds.example.com/trails.kml")
	require.NoError(t, err)

	assert.Same(t, first, second, "second fetch should come from cache")
	mockHTTP.AssertExpectations(t)
}

func TestFetchNetwork_ExpiredEntryRefetches(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, sampleKML), nil).Once()
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, sampleKML), nil).Once()

	client := NewClientWithHTTPDoer(nil, mockHTTP, time.Nanosecond)

	_, err := client.FetchNetwork(context.Background(), "https://feeds.example.com/trails.kml")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = client.FetchNetwork(context.Background(), "https://feeds.example.com/trails.kml")
	require.NoError(t, err)

	mockHTTP.AssertExpectations(t)
}

func TestFetchNetwork_InvalidateForcesRefetch(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, sampleKML), nil).Once()
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, sampleKML), nil).Once()

	client := NewClientWithHTTPDoer(nil, mockHTTP, DefaultTTL)

	_, err := client.FetchNetwork(context.Background(), "https://feeds.example.com/trails.kml")
	require.NoError(t, err)
	client.Invalidate("https://feeds.example.com/trails.kml")
	_, err = client.FetchNetwork(context.Background(), "https://feeds.example.com/trails.kml")
	require.NoError(t, err)

	mockHTTP.AssertExpectations(t)
}

func TestFetchNetwork_HTTPError(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(404, "not found"), nil)

	client := NewClientWithHTTPDoer(nil, mockHTTP, DefaultTTL)

	_, err := client.FetchNetwork(context.Background(), "https://feeds.example.com/missing.kml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP error 404")
}

func TestFetchNetwork_MalformedXML(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(
		createMockResponse(200, "<kml><Document>"), nil)

	client := NewClientWithHTTPDoer(nil, mockHTTP, DefaultTTL)

	_, err := client.FetchNetwork(context.Background(), "https://feeds.example.com/broken.kml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse KML")
}

func TestParseCoordinates_SkipsMalformedTuples(t *testing.T) {
	points := parseCoordinates("35.1,31.7 garbage 35.2,31.8,900 200.0,95.0")

	// The out-of-range tuple is dropped along with the unparsable one.
	require.Len(t, points, 2)
	assert.Equal(t, 31.7, points[0].Lat)
	assert.Equal(t, 900.0, points[1].Alt)
}
