package db

// PostgreSQL migrations for the analysis store

var postgresMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_imagerank_analyses_table",
		Up: `
			CREATE TABLE IF NOT EXISTS imagerank_analyses (
				key TEXT PRIMARY KEY,
				run_id TEXT,
				image_count INTEGER DEFAULT 0,
				payload TEXT NOT NULL,
				created_at TIMESTAMPTZ DEFAULT NOW(),
				updated_at TIMESTAMPTZ DEFAULT NOW(),
				expires_at TIMESTAMPTZ NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_imagerank_analyses_expires_at ON imagerank_analyses(expires_at);
			CREATE INDEX IF NOT EXISTS idx_imagerank_analyses_created_at ON imagerank_analyses(created_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_imagerank_analyses_created_at;
			DROP INDEX IF EXISTS idx_imagerank_analyses_expires_at;
			DROP TABLE IF EXISTS imagerank_analyses;
		`,
	},
	{
		Version: 2,
		Name:    "create_imagerank_section_runs_table",
		Up: `
			CREATE TABLE IF NOT EXISTS imagerank_section_runs (
				id TEXT PRIMARY KEY,
				payload TEXT NOT NULL,
				created_at TIMESTAMPTZ DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_imagerank_section_runs_created_at ON imagerank_section_runs(created_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_imagerank_section_runs_created_at;
			DROP TABLE IF EXISTS imagerank_section_runs;
		`,
	},
}
