package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create deployments table
			CREATE TABLE deployments (
				id UUID PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				version BIGINT NOT NULL,
				target VARCHAR(50) NOT NULL CHECK (target IN ('api', 'webapp', 'widget', 'workflow_node', 'schedule')),
				description TEXT NOT NULL DEFAULT '',
				active BOOLEAN NOT NULL DEFAULT false,
				snapshot JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				UNIQUE (workflow_id, version)
			);

			CREATE INDEX idx_deployments_workflow_id ON deployments(workflow_id);
			CREATE INDEX idx_deployments_active ON deployments(active);
			CREATE INDEX idx_deployments_created_at ON deployments(created_at);
		`,
		2: `
			-- Create runs table
			CREATE TABLE runs (
				id UUID PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				deployment_version BIGINT NOT NULL DEFAULT 0,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'running', 'success', 'failed', 'cancelled')),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE,
				cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
				tokens BIGINT NOT NULL DEFAULT 0,
				node_outputs JSONB
			);

			CREATE INDEX idx_runs_workflow_id ON runs(workflow_id);
			CREATE INDEX idx_runs_status ON runs(status);
			CREATE INDEX idx_runs_started_at ON runs(started_at);
		`,
	}
}
