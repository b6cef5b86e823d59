// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package tenantcfgsvc resolves per-tenant storage configuration. Sources
// are consulted in order: the remote tenant-config service, a local YAML
// fallback file, and finally the env-derived defaults.
package tenantcfgsvc

// TenantConfig is the storage configuration resolved for one tenant.
type TenantConfig struct {
	TenantID string        `json:"tenant_id"`
	Store    StoreSettings `json:"store"`
}

// StoreSettings selects and locates the storage backend for a tenant.
type StoreSettings struct {
	// Backend is one of memory, mongo, opensearch, postgres.
	Backend string `json:"backend"`

	MongoURI string `json:"mongo_uri,omitempty"`

	OpenSearchEndpoint string `json:"opensearch_endpoint,omitempty"`
	OpenSearchUsername string `json:"opensearch_username,omitempty"`
	OpenSearchPassword string `json:"opensearch_password,omitempty"`

	Postgres *PostgresSettings `json:"postgres,omitempty"`
}

// PostgresSettings locates the postgres database for a postgres-backed tenant.
type PostgresSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
}
