package database

type MigrationId int64

type Migration struct {
	Id MigrationId `db:"id"`
}

type migration struct {
	id          MigrationId
	description string
	query       string
}

var migrations = []migration{
	{
		id:          0,
		description: "Image cache",
		query: `
			CREATE TABLE image_cache (
			    key_high TEXT,
			    key_low TEXT,
			    data BLOB,
			    byte_size INT,
			    created_timestamp DATETIME,
			    accessed_timestamp DATETIME,

			    PRIMARY KEY (key_high, key_low)
			);

			CREATE INDEX image_cache_accessed_timestamp_idx ON image_cache (accessed_timestamp);
		`,
	},
}
