package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/inventory-service/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origWD  string
	)

	BeforeEach(func() {
		var err error
		origWD, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())
		os.Unsetenv(config.DatabaseURLEnv)
	})

	AfterEach(func() {
		Expect(os.Chdir(origWD)).To(Succeed())
		os.RemoveAll(tempDir)
		os.Unsetenv(config.DatabaseURLEnv)
		os.Unsetenv("DATABASE_RETRY_INTERVAL")
		os.Unsetenv("SERVER_ADDRESS")
	})

	Describe("Load", func() {
		Context("without a database URL", func() {
			It("should fail with ErrDatabaseURLMissing", func() {
				cfg, err := config.Load()
				Expect(err).To(MatchError(config.ErrDatabaseURLMissing))
				Expect(cfg).To(BeNil())
			})
		})

		Context("with environment variables", func() {
			BeforeEach(func() {
				os.Setenv(config.DatabaseURLEnv, "mysql://root:secret@db:3306/inventory")
			})

			It("should use defaults for everything else", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Database.URL).To(Equal("mysql://root:secret@db:3306/inventory"))
				Expect(cfg.Server.Address).To(Equal("0.0.0.0:8000"))
				Expect(cfg.RetryInterval()).To(Equal(time.Second))
				Expect(cfg.Database.MaxOpenConns).To(Equal(10))
				Expect(cfg.Metrics.Address).To(BeEmpty())
			})

			It("should let nested keys be overridden", func() {
				os.Setenv("DATABASE_RETRY_INTERVAL", "250ms")
				os.Setenv("SERVER_ADDRESS", "127.0.0.1:9000")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.RetryInterval()).To(Equal(250 * time.Millisecond))
				Expect(cfg.Server.Address).To(Equal("127.0.0.1:9000"))
			})

			It("should reject unsupported schemes", func() {
				os.Setenv(config.DatabaseURLEnv, "postgres://db/inventory")
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
				Expect(err).NotTo(MatchError(config.ErrDatabaseURLMissing))
			})
		})

		Context("with a .env file", func() {
			BeforeEach(func() {
				err := os.WriteFile(filepath.Join(tempDir, ".env"),
					[]byte("DATABASE_URL=sqlite://inventory.db\n"), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should read the database URL from it", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Database.URL).To(Equal("sqlite://inventory.db"))
			})
		})

		Context("with valid config file", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: ":8080"
  environment: "prod"

database:
  url: "sqlite://inventory.db"
  retry_interval: "2s"
  max_open_conns: 4

metrics:
  address: "127.0.0.1:9100"

logging:
  level: "debug"
`
				err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
				Expect(cfg.RetryInterval()).To(Equal(2 * time.Second))
				Expect(cfg.Database.MaxOpenConns).To(Equal(4))
				Expect(cfg.Metrics.Address).To(Equal("127.0.0.1:9100"))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
			})

			It("should prefer the environment over the file", func() {
				os.Setenv(config.DatabaseURLEnv, "mysql://app@db/inventory")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Database.URL).To(Equal("mysql://app@db/inventory"))
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = &config.Config{
				Server:   config.ServerConfig{Address: ":8000", Environment: config.EnvDev},
				Database: config.DatabaseConfig{URL: "mysql://app@db/inventory", RetryInterval: "1s"},
				Metrics:  config.MetricsConfig{BufferSize: 10},
				Logging:  config.LoggingConfig{Level: config.LogLevelInfo},
			}
		})

		It("should accept a complete configuration", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject a mysql URL without host", func() {
			cfg.Database.URL = "mysql:///inventory"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an invalid retry interval", func() {
			cfg.Database.RetryInterval = "soon"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		DescribeTable("should require a positive retry interval",
			func(interval string) {
				cfg.Database.RetryInterval = interval
				Expect(cfg.Validate()).NotTo(Succeed())
				Expect(cfg.RetryInterval()).To(Equal(time.Second))
			},
			Entry("zero", "0s"),
			Entry("bare zero", "0"),
			Entry("negative", "-1s"),
		)

		It("should reject in-memory sqlite databases", func() {
			cfg.Database.URL = "sqlite::memory:"
			Expect(cfg.Validate()).NotTo(Succeed())
			cfg.Database.URL = "sqlite://:memory:"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should accept a sqlite file database", func() {
			cfg.Database.URL = "sqlite://inventory.db"
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject an invalid listen address", func() {
			cfg.Server.Address = "invalid:host:port"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an unknown environment", func() {
			cfg.Server.Environment = "qa"
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})
})
