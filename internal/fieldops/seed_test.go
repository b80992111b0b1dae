package fieldops

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedHeader = "kind,key,job_key,name,status,site_lat,site_lng,radius_meters,date\n"

func TestParseSeedCSV(t *testing.T) {
	in := seedHeader +
		"job,maple-12,,Maple St reroof,In Progress,39.1653,-86.5264,150,2026-03-15\n" +
		"job,elm-4,,Elm Ct estimate,,,,,\n" +
		"permit,maple-12-bldg,maple-12,Building permit,Applied,,,,\n" +
		"permit,maple-12-row,Maple-12,Right of way,approved,,,,2026-04-01T00:00:00Z\n"

	data, err := ParseSeedCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, data.Jobs, 2)
	require.Len(t, data.Permits, 2)

	maple := data.Jobs[0]
	assert.Equal(t, SeedJobID("maple-12"), maple.ID)
	assert.Equal(t, "in_progress", maple.Status)
	require.NotNil(t, maple.SiteLat)
	assert.Equal(t, 39.1653, *maple.SiteLat)
	require.NotNil(t, maple.GeofenceRadiusMeters)
	assert.Equal(t, 150.0, *maple.GeofenceRadiusMeters)
	require.NotNil(t, maple.StartDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *maple.StartDate)

	elm := data.Jobs[1]
	assert.Equal(t, "lead", elm.Status)
	assert.Nil(t, elm.SiteLat)
	assert.Nil(t, elm.StartDate)

	assert.Equal(t, maple.ID, data.Permits[0].JobID)
	assert.Equal(t, "applied", data.Permits[0].Status)
	assert.Equal(t, maple.ID, data.Permits[1].JobID, "job keys are case-insensitive")
	require.NotNil(t, data.Permits[1].ExpiresAt)
}

func TestParseSeedCSV_StableIDs(t *testing.T) {
	assert.Equal(t, SeedJobID("maple-12"), SeedJobID("  Maple-12 "))
	assert.NotEqual(t, SeedJobID("maple-12"), SeedPermitID("maple-12"))
}

func TestParseSeedCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"missing column":  "kind,key,name\njob,a,A\n",
		"empty key":       seedHeader + "job,,,A,,,,,\n",
		"unknown kind":    seedHeader + "crew,a,,A,,,,,\n",
		"duplicate job":   seedHeader + "job,a,,A,,,,,\njob,A,,A again,,,,,\n",
		"half a site":     seedHeader + "job,a,,A,,39.1,,,\n",
		"bad float":       seedHeader + "job,a,,A,,north,-86.5,,\n",
		"bad date":        seedHeader + "job,a,,A,,,,,next tuesday\n",
		"permit no job":   seedHeader + "permit,p,,P,,,,,\n",
		"dangling permit": seedHeader + "permit,p,ghost,P,,,,,\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeedCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}
