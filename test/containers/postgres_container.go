/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package testcontainers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yugabyte/yb-querysummary/src/utils"
)

// PostgresContainer runs PostgreSQL with pg_stat_statements preloaded.
type PostgresContainer struct {
	mutex sync.Mutex
	ContainerConfig
	container testcontainers.Container
}

func (pg *PostgresContainer) Start(ctx context.Context) (err error) {
	pg.mutex.Lock()
	defer pg.mutex.Unlock()

	if pg.container != nil {
		if pg.container.IsRunning() {
			utils.PrintAndLog("Postgres-%s container already running", pg.DBVersion)
			return nil
		}
		utils.PrintAndLog("Restarting Postgres-%s container", pg.DBVersion)
		if err := pg.container.Start(ctx); err != nil {
			return fmt.Errorf("failed to restart postgres container: %w", err)
		}
		return pingDatabase("pgx", pg.GetConnectionString())
	}

	req := testcontainers.ContainerRequest{
		Image:        fmt.Sprintf("postgres:%s", pg.DBVersion),
		ExposedPorts: []string{DEFAULT_PG_PORT + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pg.User,
			"POSTGRES_PASSWORD": pg.Password,
			"POSTGRES_DB":       pg.DBName,
		},
		Cmd: []string{
			"postgres",
			"-c", "shared_preload_libraries=pg_stat_statements",
			"-c", "pg_stat_statements.track=all",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DEFAULT_PG_PORT+"/tcp").WithStartupTimeout(2*time.Minute).WithPollInterval(5*time.Second),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(3*time.Minute),
		),
	}

	pg.container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		printContainerLogs(pg.container)
		return fmt.Errorf("failed to start postgres container: %w", err)
	}

	err = pingDatabase("pgx", pg.GetConnectionString())
	if err != nil {
		return fmt.Errorf("failed to ping postgres container: %w", err)
	}
	return nil
}

// Stop stops (but does not remove) the container, so Start can bring it back with the same data.
func (pg *PostgresContainer) Stop(ctx context.Context) error {
	pg.mutex.Lock()
	defer pg.mutex.Unlock()

	if pg.container == nil || !pg.container.IsRunning() {
		return nil
	}

	timeout := 10 * time.Second
	if err := pg.container.Stop(ctx, &timeout); err != nil {
		return fmt.Errorf("failed to stop postgres container: %w", err)
	}
	return nil
}

func (pg *PostgresContainer) Terminate(ctx context.Context) {
	pg.mutex.Lock()
	defer pg.mutex.Unlock()

	if pg.container == nil {
		return
	}
	err := pg.container.Terminate(ctx)
	if err != nil {
		log.Errorf("failed to terminate postgres container: %v", err)
	}
}

func (pg *PostgresContainer) GetHostPort() (string, int, error) {
	if pg.container == nil {
		return "", -1, fmt.Errorf("postgres container is not started: nil")
	}

	ctx := context.Background()
	host, err := pg.container.Host(ctx)
	if err != nil {
		return "", -1, fmt.Errorf("failed to fetch host for postgres container: %w", err)
	}

	port, err := pg.container.MappedPort(ctx, nat.Port(DEFAULT_PG_PORT))
	if err != nil {
		return "", -1, fmt.Errorf("failed to fetch mapped port for postgres container: %w", err)
	}
	return host, port.Int(), nil
}

func (pg *PostgresContainer) GetConfig() ContainerConfig {
	return pg.ContainerConfig
}

func (pg *PostgresContainer) GetConnectionString() string {
	host, port, err := pg.GetHostPort()
	if err != nil {
		utils.ErrExit("failed to get host port for postgres connection string: %v", err)
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=disable", pg.User, pg.Password, host, port, pg.DBName)
}

func (pg *PostgresContainer) GetConnection() (*sql.DB, error) {
	conn, err := sql.Open("pgx", pg.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to postgres: %w", err)
	}
	return conn, nil
}

func (pg *PostgresContainer) ExecuteSqls(sqls ...string) error {
	conn, err := pg.GetConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, sqlStmt := range sqls {
		if _, err := conn.Exec(sqlStmt); err != nil {
			return fmt.Errorf("failed to execute sql %q: %w", sqlStmt, err)
		}
	}
	return nil
}

func pingDatabase(driverName string, connStr string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	var pingErr error
	for i := 0; i < 10; i++ {
		if pingErr = db.Ping(); pingErr == nil {
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("failed to ping database: %w", pingErr)
}

func printContainerLogs(container testcontainers.Container) {
	if container == nil {
		log.Printf("Cannot fetch logs: container is nil")
		return
	}

	containerID := container.GetContainerID()
	logs, err := container.Logs(context.Background())
	if err != nil {
		log.Printf("Error fetching logs for container %s: %v", containerID, err)
		return
	}
	defer logs.Close()

	logData, err := io.ReadAll(logs)
	if err != nil {
		log.Printf("Error reading logs for container %s: %v", containerID, err)
		return
	}
	fmt.Printf("=== Logs for container %s ===\n%s\n=== End of Logs for container %s ===\n", containerID, string(logData), containerID)
}
