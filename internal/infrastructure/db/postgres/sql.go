package postgres

const insertOccurrenceSQL = `
INSERT INTO occurrences (
  id, series_id, title, description, location, visibility, event_type,
  external_registration_url, image_url, created_by,
  start_time, end_time, external_calendar_id,
  created_at, updated_at, deleted_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`

const getOccurrenceSQL = `
SELECT id, series_id, title, description, location, visibility, event_type,
       external_registration_url, image_url, created_by,
       start_time, end_time, external_calendar_id,
       created_at, updated_at, deleted_at
FROM occurrences WHERE id = $1
`

const listBySeriesSQL = `
SELECT id, series_id, title, description, location, visibility, event_type,
       external_registration_url, image_url, created_by,
       start_time, end_time, external_calendar_id,
       created_at, updated_at, deleted_at
FROM occurrences
WHERE series_id = $1 AND deleted_at IS NULL
ORDER BY start_time ASC, id ASC
`

const updateOccurrenceSQL = `
UPDATE occurrences SET
  series_id=$2, title=$3, description=$4, location=$5, visibility=$6,
  event_type=$7, external_registration_url=$8, image_url=$9,
  start_time=$10, end_time=$11, external_calendar_id=$12, updated_at=$13
WHERE id=$1
`

const softDeleteOccurrenceSQL = `
UPDATE occurrences SET deleted_at=$2, updated_at=$2
WHERE id=$1 AND deleted_at IS NULL
`

const setExternalCalendarIDSQL = `
UPDATE occurrences SET external_calendar_id=$2, updated_at=$3
WHERE id=$1
`

const upsertRegistrationSQL = `
INSERT INTO registrations (occurrence_id, user_id, status, guest_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
ON CONFLICT (occurrence_id, user_id)
DO UPDATE SET status=EXCLUDED.status, guest_count=EXCLUDED.guest_count, updated_at=EXCLUDED.updated_at
`

const deleteRegistrationSQL = `
DELETE FROM registrations WHERE occurrence_id=$1 AND user_id=$2
`

const getRegistrationSQL = `
SELECT occurrence_id, user_id, status, guest_count, created_at, updated_at
FROM registrations WHERE occurrence_id=$1 AND user_id=$2
`

const countRegistrationsSQL = `
SELECT COUNT(*) FROM registrations WHERE occurrence_id=$1 AND status='registered'
`

const deleteRegistrationsByUserSQL = `
DELETE FROM registrations WHERE user_id=$1
`
