package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/angeloszaimis/inventory-service/internal/apierror"
	"github.com/angeloszaimis/inventory-service/internal/database"
)

const mysqlDuplicateEntry = 1062

// Filter restricts the users returned by List. Where is joined with AND.
type Filter struct {
	Where []string
	Args  []any
}

// Save inserts u, or updates the row with u.ID when update is true.
func (u *User) Save(ctx context.Context, d database.Conn, update bool) error {
	if update {
		if u.ID == 0 {
			return apierror.New(apierror.KindBadRequest, "user ID must be set for an update")
		}

		res, err := d.ExecContext(ctx, `UPDATE users
			SET first_name = ?, last_name = ?, banner_id = ?, email = ?
			WHERE id = ?`,
			u.FirstName, u.LastName, u.BannerID, u.Email, u.ID)
		if err != nil {
			return dbErr("updating", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return apierror.Wrap(apierror.KindDatabase, "failed updating user", err)
		}
		if n == 0 {
			return notFound(u.ID)
		}
		return nil
	}

	res, err := d.ExecContext(ctx, `INSERT INTO users
		(first_name, last_name, banner_id, email)
		VALUES (?, ?, ?, ?)`,
		u.FirstName, u.LastName, u.BannerID, u.Email)
	if err != nil {
		return dbErr("creating", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return apierror.Wrap(apierror.KindDatabase, "failed to get last insert ID", err)
	}
	if id <= 0 {
		return apierror.Newf(apierror.KindDatabase, "invalid insert ID from database: %d", id)
	}
	u.ID = uint64(id)

	return nil
}

// Load replaces u with the stored row for u.ID.
func (u *User) Load(ctx context.Context, d database.Conn) error {
	if u.ID == 0 {
		return apierror.New(apierror.KindBadRequest, "user ID must be set")
	}

	users, err := List(ctx, d, &Filter{Where: []string{"id = ?"}, Args: []any{u.ID}})
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return notFound(u.ID)
	}
	*u = *users[0]

	return nil
}

// Delete removes the row for u.ID. It returns a not found error if there is
// no such row.
func (u *User) Delete(ctx context.Context, d database.Conn) error {
	if u.ID == 0 {
		return apierror.New(apierror.KindBadRequest, "user ID must be set")
	}

	res, err := d.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, u.ID)
	if err != nil {
		return dbErr("deleting", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apierror.Wrap(apierror.KindDatabase, "failed deleting user", err)
	} else if n == 0 {
		return notFound(u.ID)
	}

	return nil
}

// List returns users ordered by ID. A nil filter returns every user.
func List(ctx context.Context, d database.Conn, filter *Filter) (users []*User, rerr error) {
	where := "1=1"
	var args []any
	if filter != nil && len(filter.Where) > 0 {
		where = strings.Join(filter.Where, " AND ")
		args = filter.Args
	}

	query := fmt.Sprintf(`SELECT id, first_name, last_name, banner_id, email
		FROM users WHERE %s
		ORDER BY id ASC`, where)

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.Wrap(apierror.KindDatabase, "failed loading users", err)
	}
	defer func() {
		if err := rows.Close(); err != nil && rerr == nil {
			rerr = apierror.Wrap(apierror.KindDatabase, "failed closing users rows", err)
		}
	}()

	users = make([]*User, 0)
	for rows.Next() {
		var (
			u     User
			email sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.BannerID, &email); err != nil {
			return nil, apierror.Wrap(apierror.KindDatabase, "failed scanning user", err)
		}
		if email.Valid {
			u.Email = &email.String
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, apierror.Wrap(apierror.KindDatabase, "failed iterating over users rows", err)
	}

	return users, nil
}

func notFound(id uint64) error {
	return apierror.Newf(apierror.KindNotFound, "user with ID %d doesn't exist", id)
}

// dbErr classifies a failed write. Unique constraint violations are
// conflicts; anything else is a database failure.
func dbErr(action string, err error) error {
	if isDuplicate(err) {
		return apierror.Wrap(apierror.KindConflict, "user with this banner ID or email already exists", err)
	}
	return apierror.Wrap(apierror.KindDatabase, fmt.Sprintf("failed %s user", action), err)
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}
