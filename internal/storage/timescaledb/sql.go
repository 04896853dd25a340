package timescaledb

const createTableSQL = `
CREATE TABLE IF NOT EXISTS plant_snapshots (
    bed_id text NOT NULL,
    plant_id text NOT NULL,
    day date NOT NULL,
    species_id text NOT NULL,
    sunlight_hours float8 NOT NULL DEFAULT 0,
    shaded_hours float8 NOT NULL DEFAULT 0,
    temp_ok_hours float8 NOT NULL DEFAULT 0,
    height float8 NOT NULL DEFAULT 0,
    canopy_radius float8 NOT NULL DEFAULT 0,
    phase text NOT NULL,
    dead boolean NOT NULL DEFAULT false,
    death_reason text NULL,
    model_version text NOT NULL,
    inputs jsonb NULL,
    updated_at timestamp WITH TIME ZONE NOT NULL DEFAULT now(),
    PRIMARY KEY (bed_id, plant_id, day)
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('plant_snapshots', 'day', chunk_time_interval => INTERVAL '30 days', if_not_exists => true);`

const createIndexesSQL = `CREATE INDEX IF NOT EXISTS plant_snapshots_species_idx ON plant_snapshots (species_id, day DESC);`

// Weekly roll-up per bed, used for season charts.
const createWeeklyViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS plant_snapshots_1w
WITH (timescaledb.continuous, timescaledb.materialized_only = false)
AS
SELECT
    time_bucket(INTERVAL '7 days', day) AS bucket,
    bed_id,
    species_id,
    avg(sunlight_hours) AS sunlight_hours,
    min(sunlight_hours) AS min_sunlight_hours,
    avg(temp_ok_hours) AS temp_ok_hours,
    max(height) AS max_height,
    max(canopy_radius) AS max_canopy_radius,
    count(*) FILTER (WHERE dead) AS dead_plant_days,
    count(*) AS plant_days
FROM plant_snapshots
GROUP BY bucket, bed_id, species_id
WITH NO DATA;`

const addAggregationPolicyWeeklySQL = `SELECT add_continuous_aggregate_policy('plant_snapshots_1w', INTERVAL '2 years', INTERVAL '1 day', INTERVAL '1 day', if_not_exists => true);`
