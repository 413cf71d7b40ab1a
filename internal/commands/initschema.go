package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaosprobe/chaosprobe/internal/store"
)

// NewInitSchemaCmd creates the init-schema command.
func NewInitSchemaCmd() *cobra.Command {
	var (
		region   string
		skipSeed bool
	)

	cmd := &cobra.Command{
		Use:   "init-schema",
		Short: "Create the chaos database tables, indexes, view, and seed rows",
		Long: `Creates the schema the agents write to: the seven entity tables, their
indexes, the experiment_with_hypothesis view, and a handful of seed system
components and hypotheses. Every statement is idempotent; re-running against
an initialized database is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			svc, err := buildServices(ctx, region)
			if err != nil {
				return err
			}
			return initSchema(ctx, svc.gateway, skipSeed)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region the database stack is deployed in")
	cmd.Flags().BoolVar(&skipSeed, "skip-seed", false, "Skip inserting seed components and hypotheses")
	return cmd
}

func initSchema(ctx context.Context, gw store.Executor, skipSeed bool) error {
	bold := color.New(color.Bold)

	_, _ = bold.Println("Creating tables...")
	for _, stmt := range tableStatements {
		if _, err := gw.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}

	_, _ = bold.Println("Creating indexes...")
	for _, stmt := range indexStatements {
		if _, err := gw.Execute(ctx, stmt, nil); err != nil {
			return fmt.Errorf("creating indexes: %w", err)
		}
	}

	_, _ = bold.Println("Creating view...")
	if _, err := gw.Execute(ctx, viewStatement, nil); err != nil {
		return fmt.Errorf("creating view: %w", err)
	}

	if !skipSeed {
		_, _ = bold.Println("Inserting seed data...")
		for _, stmt := range seedStatements {
			if _, err := gw.Execute(ctx, stmt, nil); err != nil {
				return fmt.Errorf("inserting seed data: %w", err)
			}
		}
	}

	color.Green("Schema initialized")
	return nil
}

var tableStatements = []string{
	`CREATE TABLE IF NOT EXISTS system_component (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            type VARCHAR(100) NOT NULL,
            description TEXT,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS hypothesis (
            id SERIAL PRIMARY KEY,
            title VARCHAR(500) NOT NULL,
            description TEXT,
            persona VARCHAR(255),
            steady_state_description TEXT,
            failure_mode TEXT,
            status VARCHAR(50) DEFAULT 'proposed',
            priority INTEGER DEFAULT 1,
            notes TEXT,
            system_component_id INTEGER REFERENCES system_component(id),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS experiment (
            id SERIAL PRIMARY KEY,
            hypothesis_id INTEGER REFERENCES hypothesis(id),
            title VARCHAR(500) NOT NULL,
            description TEXT,
            experiment_plan TEXT,
            fis_configuration JSONB,
            fis_role_configuration JSONB,
            fis_experiment_id VARCHAR(255),
            experiment_notes TEXT,
            status VARCHAR(50) DEFAULT 'draft',
            scheduled_for TIMESTAMP WITH TIME ZONE,
            executed_at TIMESTAMP WITH TIME ZONE,
            completed_at TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS learning_insights (
            id SERIAL PRIMARY KEY,
            experiment_id INTEGER REFERENCES experiment(id),
            key_learnings TEXT,
            recommendations TEXT,
            refined_hypotheses TEXT,
            risk_assessment TEXT,
            knowledge_gaps TEXT,
            follow_up_experiments TEXT,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS source_code_analysis (
            id SERIAL PRIMARY KEY,
            repository_url VARCHAR(500) NOT NULL,
            analysis_timestamp TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            framework_stack JSONB,
            aws_services_detected JSONB,
            infrastructure_patterns JSONB,
            deployment_methods JSONB,
            architectural_summary TEXT,
            failure_points_analysis TEXT,
            recommendations TEXT
        )`,
	`CREATE TABLE IF NOT EXISTS aws_resource_analysis (
            id SERIAL PRIMARY KEY,
            resource_type VARCHAR(100),
            resource_id VARCHAR(500) UNIQUE,
            aws_account_id VARCHAR(20),
            region VARCHAR(20),
            analysis_results JSONB,
            deployment_status VARCHAR(50) DEFAULT 'unknown',
            resource_metadata JSONB,
            analysis_timestamp TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS hypothesis_evaluation (
            id SERIAL PRIMARY KEY,
            hypothesis_id INTEGER NOT NULL REFERENCES hypothesis(id),
            testability_score INTEGER NOT NULL CHECK (testability_score BETWEEN 1 AND 5),
            specificity_score INTEGER NOT NULL CHECK (specificity_score BETWEEN 1 AND 5),
            realism_score INTEGER NOT NULL CHECK (realism_score BETWEEN 1 AND 5),
            safety_score INTEGER NOT NULL CHECK (safety_score BETWEEN 1 AND 5),
            learning_value_score INTEGER NOT NULL CHECK (learning_value_score BETWEEN 1 AND 5),
            overall_score NUMERIC(3,2) NOT NULL,
            evaluation_timestamp TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (hypothesis_id)
        )`,
}

var indexStatements = []string{
	"CREATE INDEX IF NOT EXISTS idx_hypothesis_status ON hypothesis(status)",
	"CREATE INDEX IF NOT EXISTS idx_hypothesis_priority ON hypothesis(priority)",
	"CREATE INDEX IF NOT EXISTS idx_hypothesis_system_component ON hypothesis(system_component_id)",
	"CREATE INDEX IF NOT EXISTS idx_experiment_status ON experiment(status)",
	"CREATE INDEX IF NOT EXISTS idx_experiment_hypothesis ON experiment(hypothesis_id)",
	"CREATE INDEX IF NOT EXISTS idx_experiment_scheduled ON experiment(scheduled_for)",
	"CREATE INDEX IF NOT EXISTS idx_hypothesis_evaluation_hypothesis_id ON hypothesis_evaluation(hypothesis_id)",
	"CREATE INDEX IF NOT EXISTS idx_hypothesis_evaluation_overall_score ON hypothesis_evaluation(overall_score DESC)",
}

const viewStatement = `CREATE OR REPLACE VIEW experiment_with_hypothesis AS
        SELECT
            e.id,
            e.title,
            e.description,
            e.experiment_plan,
            e.status,
            e.scheduled_for,
            e.executed_at,
            e.completed_at,
            e.created_at,
            h.title as hypothesis_title,
            h.description as hypothesis_description,
            h.status as hypothesis_status,
            sc.name as component_name,
            sc.type as component_type
        FROM experiment e
        LEFT JOIN hypothesis h ON e.hypothesis_id = h.id
        LEFT JOIN system_component sc ON h.system_component_id = sc.id`

var seedStatements = []string{
	`INSERT INTO system_component (name, type, description) VALUES
            ('Web API', 'ECS Service', 'Main web API service running on ECS')
            ON CONFLICT DO NOTHING`,
	`INSERT INTO system_component (name, type, description) VALUES
            ('User Database', 'RDS PostgreSQL', 'Primary user data database')
            ON CONFLICT DO NOTHING`,
	`INSERT INTO system_component (name, type, description) VALUES
            ('Cache Layer', 'ElastiCache Redis', 'Redis cache for session and application data')
            ON CONFLICT DO NOTHING`,
	`INSERT INTO system_component (name, type, description) VALUES
            ('File Storage', 'S3 Bucket', 'Object storage for user uploads and static assets')
            ON CONFLICT DO NOTHING`,
	`INSERT INTO system_component (name, type, description) VALUES
            ('Background Jobs', 'Lambda Functions', 'Serverless functions for background processing')
            ON CONFLICT DO NOTHING`,
	`INSERT INTO hypothesis (title, description, persona, steady_state_description, failure_mode, status, priority, system_component_id) VALUES
            ('API maintains performance during ECS task restarts',
             'The web API should maintain response times under 500ms and >95% success rate when ECS tasks are restarted',
             'End User',
             'API response time < 500ms, Success rate > 95%, All endpoints accessible',
             'ECS tasks are randomly restarted, simulating container failures',
             'proposed',
             3,
             1)
            ON CONFLICT DO NOTHING`,
	`INSERT INTO hypothesis (title, description, persona, steady_state_description, failure_mode, status, priority, system_component_id) VALUES
            ('System resilience during database connection failures',
             'Application should gracefully handle database connection failures with appropriate fallbacks',
             'Application Developer',
             'Database queries complete successfully, Application remains responsive, Error rates < 1%',
             'Database connections are terminated or network partitions occur',
             'proposed',
             2,
             2)
            ON CONFLICT DO NOTHING`,
	`INSERT INTO hypothesis (title, description, persona, steady_state_description, failure_mode, status, priority, system_component_id) VALUES
            ('Cache failure does not impact core functionality',
             'Core application features should remain functional when Redis cache is unavailable',
             'End User',
             'Core features work normally, Response times may increase but stay < 2s, No data loss',
             'Redis cache becomes unavailable or returns errors',
             'prioritized',
             1,
             3)
            ON CONFLICT DO NOTHING`,
}
