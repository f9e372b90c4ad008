package auth

import "github.com/2beens/portfolio/pkg"

// bcrypt ignores input past this length
const maxPasswordBytes = 72

func passwordMatches(password, hash string) bool {
	return pkg.CheckPasswordHash(password, hash)
}
