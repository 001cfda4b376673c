// Package pages renders the HTML served to browsers.
package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Chat renders the single chat page. The client logs in over /api, then
// opens /ws with the issued token and identifies with its user id.
func Chat(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, chatHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<title>"+templ.EscapeString(title)+"</title>"); err != nil {
			return err
		}
		if _, err := io.WriteString(w, chatStyle); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<h1>"+templ.EscapeString(title)+"</h1>"); err != nil {
			return err
		}
		_, err := io.WriteString(w, chatBody)
		return err
	})
}

const chatHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
`

const chatStyle = `<style>
body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 860px; padding: 1rem; }
form { display: flex; gap: .5rem; flex-wrap: wrap; margin-bottom: .75rem; }
#chat { display: none; gap: 1rem; }
#messages { flex: 1; list-style: none; padding: 0; height: 60vh; overflow-y: auto; border: 1px solid #ddd; }
#messages li { padding: .25rem .5rem; }
#messages .from { font-weight: 600; margin-right: .5rem; }
#messages .notice { font-style: italic; color: #a33; }
#users { width: 180px; list-style: none; padding: 0; }
#error { color: #a33; min-height: 1.2em; }
</style>
</head>
<body>
`

const chatBody = `
<p id="error"></p>
<section id="auth">
  <form id="login">
    <input name="email" type="email" placeholder="email" required>
    <input name="password" type="password" placeholder="password" required>
    <button>Log in</button>
  </form>
  <form id="register">
    <input name="username" placeholder="username" required>
    <input name="email" type="email" placeholder="email" required>
    <input name="password" type="password" placeholder="password" required>
    <input name="password2" type="password" placeholder="repeat password" required>
    <button>Register</button>
  </form>
</section>
<section id="chat">
  <div style="flex:1">
    <ul id="messages"></ul>
    <form id="send">
      <input name="message" autocomplete="off" style="flex:1" required>
      <button>Send</button>
      <button type="button" id="logout">Log out</button>
    </form>
  </div>
  <ul id="users"></ul>
</section>
<script>
(function () {
  var session = JSON.parse(sessionStorage.getItem("chat-session") || "null");
  var socket = null;
  var $ = function (id) { return document.getElementById(id); };

  function showError(msg) { $("error").textContent = msg || ""; }

  function post(url, body) {
    return fetch(url, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(body)
    }).then(function (res) {
      return res.json().then(function (data) {
        if (!res.ok) { throw new Error(data.error || res.statusText); }
        return data;
      });
    });
  }

  function formData(form) {
    var out = {};
    new FormData(form).forEach(function (v, k) { out[k] = v; });
    return out;
  }

  function addMessage(m) {
    var li = document.createElement("li");
    var text = m.message || "";
    var notice = /^<em>[\s\S]*<\/em>$/.test(text);
    if (m.from) {
      var from = document.createElement("span");
      from.className = "from";
      from.textContent = m.from;
      li.appendChild(from);
    }
    var body = document.createElement("span");
    if (notice) {
      body.className = "notice";
      text = text.slice(4, -5);
    }
    body.textContent = text;
    li.appendChild(body);
    if (m.timestamp) { li.title = new Date(m.timestamp).toLocaleString(); }
    $("messages").appendChild(li);
    $("messages").scrollTop = $("messages").scrollHeight;
  }

  function renderUsers(users) {
    var list = $("users");
    list.textContent = "";
    Object.keys(users || {}).forEach(function (id) {
      var li = document.createElement("li");
      li.textContent = users[id].name;
      list.appendChild(li);
    });
  }

  function connect() {
    $("auth").style.display = "none";
    $("chat").style.display = "flex";
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    socket = new WebSocket(proto + location.host + "/ws?token=" + encodeURIComponent(session.token));
    socket.onopen = function () {
      socket.send(JSON.stringify({ type: "iamhere", payload: session.user.id }));
    };
    socket.onmessage = function (ev) {
      var frame = JSON.parse(ev.data);
      switch (frame.type) {
        case "new message": addMessage(frame.payload); break;
        case "history": frame.payload.forEach(addMessage); break;
        case "whoshere": renderUsers(frame.payload.users); break;
      }
    };
    socket.onclose = function () { showError("Disconnected"); };
  }

  $("login").addEventListener("submit", function (e) {
    e.preventDefault();
    post("/api/login", formData(e.target)).then(function (data) {
      session = data;
      sessionStorage.setItem("chat-session", JSON.stringify(data));
      showError("");
      connect();
    }).catch(function (err) { showError(err.message); });
  });

  $("register").addEventListener("submit", function (e) {
    e.preventDefault();
    post("/api/register", formData(e.target)).then(function () {
      showError("Account created, you can log in now");
      e.target.reset();
    }).catch(function (err) { showError(err.message); });
  });

  $("send").addEventListener("submit", function (e) {
    e.preventDefault();
    var input = e.target.elements.message;
    socket.send(JSON.stringify({ type: "message", payload: { message: input.value, name: session.user.username } }));
    input.value = "";
  });

  $("logout").addEventListener("click", function () {
    post("/api/logout", { token: session.token }).finally(function () {
      sessionStorage.removeItem("chat-session");
      location.reload();
    });
  });

  if (session) { connect(); }
})();
</script>
</body>
</html>
`
