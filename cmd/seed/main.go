// Command seed bootstraps the first superuser account. Every later superuser is
// provisioned through the API by an existing one, so a fresh deployment runs this
// once against its database.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/sushihentaime/blogden/internal/common"
	"golang.org/x/crypto/bcrypt"
)

type config struct {
	DBHost     string `mapstructure:"POSTGRES_HOST"`
	DBPort     string `mapstructure:"POSTGRES_PORT"`
	DBUser     string `mapstructure:"POSTGRES_USER"`
	DBPassword string `mapstructure:"POSTGRES_PASSWORD"`
	DBName     string `mapstructure:"POSTGRES_DB"`
}

func main() {
	envFile := flag.String("env", ".env", "environment file with the database settings")
	username := flag.String("username", "", "superuser username")
	email := flag.String("email", "", "superuser email address")
	password := flag.String("password", "", "superuser password")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		log.Fatal("username, email and password are all required")
	}

	viper.SetConfigFile(*envFile)
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}

	var cfg config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("parse config: %v", err)
	}

	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 2, 2, 15*time.Minute)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer common.CloseDB(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	var id int
	err = db.QueryRow(`
		INSERT INTO users (username, email, password, is_superuser)
		VALUES ($1, $2, $3, true)
		RETURNING id`, *username, *email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("create superuser: %v", err)
	}

	log.Printf("created superuser %q (id %d)", *username, id)
}
