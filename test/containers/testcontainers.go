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
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	DEFAULT_PG_PORT = "5432"

	POSTGRESQL = "postgresql"
)

// Limitation - go test spawns different process for running tests of each package, hence the containers won't be shared across packages.
var (
	containerRegistry = make(map[string]TestContainer)
	registryMutex     sync.Mutex
)

type TestContainer interface {
	Start(ctx context.Context) error
	// Stop works for pausing the container, so that it can be restarted later
	Stop(ctx context.Context) error
	Terminate(ctx context.Context)

	GetHostPort() (string, int, error)
	GetConfig() ContainerConfig
	GetConnectionString() string
	GetConnection() (*sql.DB, error)

	ExecuteSqls(sqls ...string) error
}

type ContainerConfig struct {
	DBVersion string
	User      string
	Password  string
	DBName    string
}

func (config *ContainerConfig) buildContainerName(dbType string) string {
	return fmt.Sprintf("%s-%s", dbType, config.DBVersion)
}

func NewTestContainer(dbType string, containerConfig *ContainerConfig) TestContainer {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if containerConfig == nil {
		containerConfig = &ContainerConfig{}
	}
	setContainerConfigDefaultsIfNotProvided(containerConfig)

	containerName := containerConfig.buildContainerName(dbType)
	if container, exists := containerRegistry[containerName]; exists {
		log.Infof("container '%s' already exists in the registry", containerName)
		return container
	}

	var testContainer TestContainer
	switch dbType {
	case POSTGRESQL:
		testContainer = &PostgresContainer{
			ContainerConfig: *containerConfig,
		}
	default:
		panic(fmt.Sprintf("unsupported db type '%q' for creating test container\n", dbType))
	}

	containerRegistry[containerName] = testContainer
	return testContainer
}

func setContainerConfigDefaultsIfNotProvided(config *ContainerConfig) {
	if config.DBVersion == "" {
		config.DBVersion = "16"
	}
	if config.User == "" {
		config.User = "postgres"
	}
	if config.Password == "" {
		config.Password = "postgres"
	}
	if config.DBName == "" {
		config.DBName = "postgres"
	}
}
